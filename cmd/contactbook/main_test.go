package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/contactbook/internal/config"
	"github.com/smileynet/contactbook/internal/contact"
	"github.com/smileynet/contactbook/internal/export"
	"github.com/smileynet/contactbook/internal/render"
	"github.com/smileynet/contactbook/internal/storage"
)

// errExitCalled is a sentinel used to catch kong's os.Exit calls in tests.
var errExitCalled = errors.New("exit called")

func newParser(t *testing.T, cli *CLI) *kong.Kong {
	t.Helper()
	k, err := kong.New(cli, kong.Vars{"version": "test"})
	if err != nil {
		t.Fatal(err)
	}
	return k
}

func TestCLI_VersionFlag(t *testing.T) {
	// Given: a CLI parser with version, commit, and date fields
	var cli CLI
	var buf bytes.Buffer
	versionStr := "v1.0.0 abc1234 2026-01-01T00:00:00Z"
	k, err := kong.New(&cli,
		kong.Vars{"version": versionStr},
		kong.Writers(&buf, &buf),
		kong.Exit(func(int) { panic(errExitCalled) }),
	)
	if err != nil {
		t.Fatal(err)
	}

	// When: --version flag is passed
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic from --version flag")
		}
		err, ok := r.(error)
		if !ok || !errors.Is(err, errExitCalled) {
			panic(r)
		}

		// Then: version, commit, and date are all present in output
		output := buf.String()
		for _, want := range []string{"v1.0.0", "abc1234", "2026-01-01T00:00:00Z"} {
			if !strings.Contains(output, want) {
				t.Errorf("version output = %q, want to contain %q", output, want)
			}
		}
	}()

	k.Parse([]string{"--version"}) //nolint:errcheck // --version triggers panic via Exit hook
}

func TestCLI_Parse(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		command string
		check   func(t *testing.T, cli *CLI)
	}{
		{
			name:    "no args opens the ui",
			args:    []string{},
			command: "ui",
		},
		{
			name:    "globals before the command",
			args:    []string{"--file", "people.yaml", "--format", "yaml", "list"},
			command: "list",
			check: func(t *testing.T, cli *CLI) {
				if cli.File != "people.yaml" || cli.Format != "yaml" {
					t.Errorf("globals = %+v", cli.Globals)
				}
			},
		},
		{
			name:    "add flags",
			args:    []string{"add", "--name", "Ann", "--phone", "555-0100", "-e", "ann@example.com"},
			command: "add",
			check: func(t *testing.T, cli *CLI) {
				if cli.Add.Name != "Ann" || cli.Add.Phone != "555-0100" || cli.Add.Email != "ann@example.com" {
					t.Errorf("add = %+v", cli.Add)
				}
			},
		},
		{
			name:    "update leaves unset flags nil",
			args:    []string{"update", "2", "--email", ""},
			command: "update <position>",
			check: func(t *testing.T, cli *CLI) {
				if cli.Update.Position != 2 {
					t.Errorf("position = %d, want 2", cli.Update.Position)
				}
				if cli.Update.Name != nil || cli.Update.Phone != nil {
					t.Error("unset flags should be nil")
				}
				if cli.Update.Email == nil || *cli.Update.Email != "" {
					t.Error("--email \"\" should be set to empty")
				}
			},
		},
		{
			name:    "sort descending",
			args:    []string{"sort", "email", "--desc"},
			command: "sort <field>",
			check: func(t *testing.T, cli *CLI) {
				if cli.Sort.Field != "email" || !cli.Sort.Desc {
					t.Errorf("sort = %+v", cli.Sort)
				}
			},
		},
		{
			name:    "export without a path",
			args:    []string{"export", "--sort", "name"},
			command: "export",
			check: func(t *testing.T, cli *CLI) {
				if cli.Export.Path != "" || cli.Export.Sort != "name" {
					t.Errorf("export = %+v", cli.Export)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cli CLI
			ctx, err := newParser(t, &cli).Parse(tt.args)
			if err != nil {
				t.Fatalf("Parse(%v) error = %v", tt.args, err)
			}
			if ctx.Command() != tt.command {
				t.Errorf("command = %q, want %q", ctx.Command(), tt.command)
			}
			if tt.check != nil {
				tt.check(t, &cli)
			}
		})
	}
}

func TestCLI_Parse_RejectsUnknownSortField(t *testing.T) {
	var cli CLI
	if _, err := newParser(t, &cli).Parse([]string{"sort", "birthday"}); err == nil {
		t.Fatal("expected error for unknown sort field")
	}
}

// newTestBook opens a JSON-backed book in a temp dir, seeded with contacts.
func newTestBook(t *testing.T, seed ...contact.Contact) (*contact.Book, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "contacts.json")
	if len(seed) > 0 {
		if err := storage.NewJSONFile(path).Save(seed); err != nil {
			t.Fatal(err)
		}
	}
	cfg := config.DefaultConfig()
	cfg.Storage.Path = path
	book, err := openBook(&cfg, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("openBook() error = %v", err)
	}
	return book, path
}

// reload reads the backing file back through a fresh book.
func reload(t *testing.T, path string) []contact.Contact {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Storage.Path = path
	book, err := openBook(&cfg, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("openBook() error = %v", err)
	}
	return book.List()
}

func plain(w *bytes.Buffer) render.Printer {
	return render.NewPrinter(render.Options{Writer: w, ForcePlain: true})
}

var (
	ann = contact.Contact{Name: "Ann", Phone: "555-0100", Email: "ann@example.com"}
	bo  = contact.Contact{Name: "bo", Phone: "555-0199"}
	cy  = contact.Contact{Name: "Cy", Phone: "555-0142", Address: "1 Main St"}
)

func TestListCmd(t *testing.T) {
	book, _ := newTestBook(t, ann, bo)
	var buf bytes.Buffer

	if err := (&ListCmd{}).run(plain(&buf), book); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"1\tAnn\t555-0100", "2\tbo\t555-0199", "2 Contact(s)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output = %q, want to contain %q", out, want)
		}
	}
}

func TestAddCmd(t *testing.T) {
	t.Run("adds and persists", func(t *testing.T) {
		book, path := newTestBook(t, ann)
		var buf bytes.Buffer

		cmd := &AddCmd{Name: " bo ", Phone: "555-0199"}
		if err := cmd.run(&buf, book); err != nil {
			t.Fatalf("run() error = %v", err)
		}

		if got := buf.String(); got != "Added bo at position 2\n" {
			t.Errorf("output = %q", got)
		}
		saved := reload(t, path)
		if len(saved) != 2 || saved[1].Name != "bo" {
			t.Errorf("saved = %+v", saved)
		}
	})

	t.Run("rejects", func(t *testing.T) {
		tests := []struct {
			name string
			cmd  AddCmd
			want error
		}{
			{name: "missing phone", cmd: AddCmd{Name: "Cy"}, want: contact.ErrValidation},
			{name: "duplicate phone", cmd: AddCmd{Name: "Cy", Phone: "555-0100"}, want: contact.ErrDuplicatePhone},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				book, _ := newTestBook(t, ann)
				err := tt.cmd.run(&bytes.Buffer{}, book)
				if !errors.Is(err, tt.want) {
					t.Fatalf("error = %v, want %v", err, tt.want)
				}
				if exitCode(err) != exitUser {
					t.Errorf("exitCode = %d, want %d", exitCode(err), exitUser)
				}
			})
		}
	})
}

func TestUpdateCmd(t *testing.T) {
	email := "bo@example.com"
	empty := ""

	t.Run("keeps unset fields", func(t *testing.T) {
		book, path := newTestBook(t, ann, bo)
		cmd := &UpdateCmd{Position: 2, Email: &email}
		if err := cmd.run(&bytes.Buffer{}, book); err != nil {
			t.Fatalf("run() error = %v", err)
		}
		got := reload(t, path)[1]
		if got.Name != "bo" || got.Phone != "555-0199" || got.Email != email {
			t.Errorf("updated = %+v", got)
		}
	})

	t.Run("empty value clears", func(t *testing.T) {
		book, path := newTestBook(t, ann)
		cmd := &UpdateCmd{Position: 1, Email: &empty}
		if err := cmd.run(&bytes.Buffer{}, book); err != nil {
			t.Fatalf("run() error = %v", err)
		}
		if got := reload(t, path)[0].Email; got != "" {
			t.Errorf("email = %q, want cleared", got)
		}
	})

	t.Run("out of range", func(t *testing.T) {
		for _, pos := range []int{0, 3, -1} {
			book, _ := newTestBook(t, ann, bo)
			err := (&UpdateCmd{Position: pos, Email: &email}).run(&bytes.Buffer{}, book)
			if !errors.Is(err, contact.ErrNotFound) {
				t.Errorf("position %d: error = %v, want ErrNotFound", pos, err)
			}
		}
	})

	t.Run("phone owned by another contact", func(t *testing.T) {
		book, _ := newTestBook(t, ann, bo)
		phone := ann.Phone
		err := (&UpdateCmd{Position: 2, Phone: &phone}).run(&bytes.Buffer{}, book)
		if !errors.Is(err, contact.ErrDuplicatePhone) {
			t.Errorf("error = %v, want ErrDuplicatePhone", err)
		}
	})
}

func TestDeleteCmd(t *testing.T) {
	book, path := newTestBook(t, ann, bo)
	var buf bytes.Buffer

	if err := (&DeleteCmd{Position: 1}).run(&buf, book); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	if got := buf.String(); got != "Contact 'Ann' deleted.\n" {
		t.Errorf("output = %q", got)
	}
	saved := reload(t, path)
	if len(saved) != 1 || saved[0].Name != "bo" {
		t.Errorf("saved = %+v", saved)
	}

	if err := (&DeleteCmd{Position: 5}).run(&buf, book); !errors.Is(err, contact.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestFindCmd_ShowsStoragePositions(t *testing.T) {
	book, _ := newTestBook(t, ann, bo, cy)
	var buf bytes.Buffer

	if err := (&FindCmd{Query: "0142"}).run(plain(&buf), book); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "3\tCy") {
		t.Errorf("output = %q, want Cy at storage position 3", out)
	}
	if !strings.Contains(out, "1 Search Result(s)") {
		t.Errorf("output = %q, want search counter", out)
	}
}

func TestSortCmd(t *testing.T) {
	book, _ := newTestBook(t, bo, cy, ann)
	var buf bytes.Buffer

	if err := (&SortCmd{Field: "name", Desc: true}).run(plain(&buf), book); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	out := buf.String()
	iCy, iBo, iAnn := strings.Index(out, "Cy"), strings.Index(out, "bo\t"), strings.Index(out, "Ann")
	if !(iCy < iBo && iBo < iAnn) {
		t.Errorf("output = %q, want Cy, bo, Ann", out)
	}
	if !strings.Contains(out, "3\tAnn") {
		t.Errorf("output = %q, want Ann at storage position 3", out)
	}
}

func TestExportCmd(t *testing.T) {
	tests := []struct {
		name string
		cmd  ExportCmd
		want []string
	}{
		{name: "storage order", cmd: ExportCmd{}, want: []string{"bo", "Ann", "Cy"}},
		{name: "sorted", cmd: ExportCmd{Sort: "name"}, want: []string{"Ann", "bo", "Cy"}},
		{name: "sorted descending", cmd: ExportCmd{Sort: "phone", Desc: true}, want: []string{"bo", "Cy", "Ann"}},
		{name: "query", cmd: ExportCmd{Query: "c"}, want: []string{"Cy"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			book, _ := newTestBook(t, bo, ann, cy)
			var got []string
			write := func(path string, contacts []contact.Contact) (string, error) {
				for _, c := range contacts {
					got = append(got, c.Name)
				}
				return path, nil
			}
			tt.cmd.Path = "out.csv"
			var buf bytes.Buffer

			if err := tt.cmd.run(&buf, book, write); err != nil {
				t.Fatalf("run() error = %v", err)
			}

			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("exported %v, want %v", got, tt.want)
			}
			if !strings.HasPrefix(buf.String(), "Contacts exported to out.csv") {
				t.Errorf("output = %q", buf.String())
			}
		})
	}
}

func TestExportCmd_WritesFile(t *testing.T) {
	book, _ := newTestBook(t, ann)
	path := filepath.Join(t.TempDir(), "out")
	var buf bytes.Buffer

	cmd := &ExportCmd{Path: path}
	if err := cmd.run(&buf, book, export.ToFile); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	data, err := os.ReadFile(path + ".csv")
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	if !strings.HasPrefix(string(data), "Name,Phone,Email,Address\n") {
		t.Errorf("csv = %q", data)
	}
}

func TestExportCmd_UnknownSortField(t *testing.T) {
	book, _ := newTestBook(t, ann)
	err := (&ExportCmd{Path: "out.csv", Sort: "birthday"}).run(&bytes.Buffer{}, book, export.ToFile)
	if !errors.Is(err, contact.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestInitCmd(t *testing.T) {
	t.Run("writes template", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".contactbook", "config.yaml")
		var buf bytes.Buffer

		if err := (&InitCmd{}).run(&buf, path, ""); err != nil {
			t.Fatalf("run() error = %v", err)
		}

		cfg, err := config.Load(path)
		if err != nil {
			t.Fatalf("written config does not load: %v", err)
		}
		if cfg.Storage.Path != "contacts.json" {
			t.Errorf("storage.path = %q", cfg.Storage.Path)
		}
	})

	t.Run("refuses to overwrite without force", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte("ui:\n  alt_screen: false\n"), 0o644); err != nil {
			t.Fatal(err)
		}

		if err := (&InitCmd{}).run(&bytes.Buffer{}, path, ""); err == nil {
			t.Fatal("expected error for existing file")
		}
		if err := (&InitCmd{Force: true}).run(&bytes.Buffer{}, path, ""); err != nil {
			t.Fatalf("--force error = %v", err)
		}
	})

	t.Run("prefers a local template", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("storage:\n  path: team.json\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		path := filepath.Join(t.TempDir(), "config.yaml")

		if err := (&InitCmd{}).run(&bytes.Buffer{}, path, dir); err != nil {
			t.Fatalf("run() error = %v", err)
		}
		cfg, err := config.Load(path)
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Storage.Path != "team.json" {
			t.Errorf("storage.path = %q, want team.json", cfg.Storage.Path)
		}
	})
}

func TestGlobals_LoadConfig(t *testing.T) {
	t.Run("flags override environment and file", func(t *testing.T) {
		// Given: a config file, an env override and a flag override
		path := filepath.Join(t.TempDir(), "config.yaml")
		data := "storage:\n  path: file.json\n  format: json\nexport:\n  path: file.csv\n"
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
		t.Setenv("CONTACTBOOK_FILE", "env.yaml")
		t.Setenv("CONTACTBOOK_EXPORT_PATH", "env.csv")

		// When: config is loaded with --file
		g := &Globals{Config: path, File: "flag.db", Format: "sqlite"}
		cfg, err := g.loadConfig()
		if err != nil {
			t.Fatalf("loadConfig() error = %v", err)
		}

		// Then: each layer wins where it is set
		if cfg.Storage.Path != "flag.db" || cfg.Storage.Format != "sqlite" {
			t.Errorf("storage = %+v, want flag values", cfg.Storage)
		}
		if cfg.Export.Path != "env.csv" {
			t.Errorf("export.path = %q, want env.csv", cfg.Export.Path)
		}
	})

	t.Run("missing explicit config", func(t *testing.T) {
		g := &Globals{Config: filepath.Join(t.TempDir(), "nope.yaml")}
		if _, err := g.loadConfig(); err == nil {
			t.Fatal("expected error for missing --config file")
		}
	})

	t.Run("invalid format", func(t *testing.T) {
		g := &Globals{Config: writeEmptyConfig(t), Format: "xml"}
		_, err := g.loadConfig()
		if err == nil {
			t.Fatal("expected error for unknown format")
		}
		if exitCode(err) != exitSetup {
			t.Errorf("exitCode = %d, want %d", exitCode(err), exitSetup)
		}
	})
}

func writeEmptyConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOpenBook_MalformedFileWarns(t *testing.T) {
	// Given: a backing file that is not JSON
	path := filepath.Join(t.TempDir(), "contacts.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := config.DefaultConfig()
	cfg.Storage.Path = path
	var stderr bytes.Buffer

	// When: the book is opened
	book, err := openBook(&cfg, &stderr)

	// Then: it starts empty and a warning is printed
	if err != nil {
		t.Fatalf("openBook() error = %v", err)
	}
	if book.Len() != 0 {
		t.Errorf("Len() = %d, want 0", book.Len())
	}
	if !strings.HasPrefix(stderr.String(), "warning: ") {
		t.Errorf("stderr = %q, want warning", stderr.String())
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitSuccess},
		{"validation", fmt.Errorf("add: %w", contact.ErrValidation), exitUser},
		{"duplicate", fmt.Errorf("add: %w", contact.ErrDuplicatePhone), exitUser},
		{"not found", fmt.Errorf("delete: %w", contact.ErrNotFound), exitUser},
		{"io", fmt.Errorf("add: %w", contact.ErrIO), exitSetup},
		{"unknown format", fmt.Errorf("list: %w", storage.ErrUnknownFormat), exitSetup},
		{"other", errors.New("boom"), exitSetup},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

// fakeRunner records whether Run was called.
type fakeRunner struct {
	called bool
	err    error
}

func (f *fakeRunner) Run() (tea.Model, error) {
	f.called = true
	return nil, f.err
}

func TestUICmd_Run(t *testing.T) {
	t.Run("requires a tty", func(t *testing.T) {
		prog := &fakeRunner{}
		if err := (&UICmd{}).run(false, prog); err == nil {
			t.Fatal("expected error without a TTY")
		}
		if prog.called {
			t.Error("program should not run without a TTY")
		}
	})

	t.Run("runs the program", func(t *testing.T) {
		prog := &fakeRunner{err: errors.New("terminal closed")}
		err := (&UICmd{}).run(true, prog)
		if !prog.called {
			t.Error("program should run")
		}
		if err == nil || err.Error() != "terminal closed" {
			t.Errorf("error = %v, want terminal closed", err)
		}
	})
}
