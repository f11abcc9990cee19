// Command tac is the CLI for the continuous argumentation writing core.
// It exposes document management, export, backup and legacy migration.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/alecthomas/kong"

	"github.com/tacwriter/tac/core/manager"
	"github.com/tacwriter/tac/core/model"
	"github.com/tacwriter/tac/core/sqlite"
	"github.com/tacwriter/tac/internal/config"
	"github.com/tacwriter/tac/internal/logging"
)

const version = "1.0.0"

// CLI defines the command-line interface for tac.
var CLI struct {
	// Global flags
	LogLevel string `name:"log-level" help:"Log level (debug, info, warn, error)" default:"info"`

	Create    CreateCmd    `cmd:"" help:"Create a new document"`
	List      ListCmd      `cmd:"" help:"List stored documents"`
	Show      ShowCmd      `cmd:"" help:"Print a document as text"`
	Stats     StatsCmd     `cmd:"" help:"Print document statistics"`
	Export    ExportCmd    `cmd:"" help:"Export a document to txt, odt or pdf"`
	Formats   FormatsCmd   `cmd:"" help:"List export formats available in this build"`
	Duplicate DuplicateCmd `cmd:"" help:"Copy a document under a new name"`
	Delete    DeleteCmd    `cmd:"" help:"Move a document to the trash"`
	Restore   RestoreCmd   `cmd:"" help:"Restore a document from the trash"`
	Trash     TrashCmd     `cmd:"" help:"List trashed documents"`
	Backup    BackupGroup  `cmd:"" help:"Backup operations (create, list, import, delete)"`
	Migrate   MigrateCmd   `cmd:"" help:"Import legacy project files"`
	Vacuum    VacuumCmd    `cmd:"" help:"Compact the document store"`
	Version   VersionCmd   `cmd:"" help:"Print version information"`
}

// BackupGroup contains backup lifecycle operations.
type BackupGroup struct {
	Create BackupCreateCmd `cmd:"" help:"Take a manual backup of the store"`
	List   BackupListCmd   `cmd:"" help:"List existing backups"`
	Import BackupImportCmd `cmd:"" help:"Replace the store with a backup"`
	Delete BackupDeleteCmd `cmd:"" help:"Delete a backup file"`
}

// openManager loads the configuration and opens the document manager.
// Every command goes through here so logging and storage are set up the
// same way.
func openManager() (*manager.Manager, error) {
	logging.InitLogger(logging.ParseLevel(CLI.LogLevel), logging.FormatText)
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return manager.New(cfg)
}

// CreateCmd creates a document, optionally from a template.
type CreateCmd struct {
	Name     string `arg:"" help:"Document name"`
	Template string `name:"template" short:"t" help:"Template name (e.g. \"Academic Essay\")"`
}

func (c *CreateCmd) Run() error {
	m, err := openManager()
	if err != nil {
		return err
	}
	defer m.Close()

	doc, err := m.Create(context.Background(), c.Name, c.Template)
	if err != nil {
		return err
	}
	fmt.Printf("Created %q (%s)\n", doc.Name, doc.ID)
	return nil
}

// ListCmd lists stored documents with their statistics.
type ListCmd struct{}

func (c *ListCmd) Run() error {
	m, err := openManager()
	if err != nil {
		return err
	}
	defer m.Close()

	docs, err := m.List(context.Background())
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Println("No documents.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tBLOCKS\tWORDS\tMODIFIED")
	for _, d := range docs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n",
			d.ID, d.Name, d.Stats.TotalBlocks, d.Stats.TotalWords,
			d.ModifiedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

// ShowCmd prints a document in the plain text layout.
type ShowCmd struct {
	ID string `arg:"" help:"Document id"`
}

func (c *ShowCmd) Run() error {
	m, err := openManager()
	if err != nil {
		return err
	}
	defer m.Close()

	dir, err := os.MkdirTemp("", "tac-show-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	path, err := m.Export(context.Background(), c.ID, dir, "txt")
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

// StatsCmd prints recomputed statistics for one document.
type StatsCmd struct {
	ID string `arg:"" help:"Document id"`
}

func (c *StatsCmd) Run() error {
	m, err := openManager()
	if err != nil {
		return err
	}
	defer m.Close()

	stats, err := m.Stats(context.Background(), c.ID)
	if err != nil {
		return err
	}
	fmt.Printf("Blocks:     %d\n", stats.TotalBlocks)
	fmt.Printf("Words:      %d\n", stats.TotalWords)
	fmt.Printf("Characters: %d (%d without spaces)\n",
		stats.TotalCharacters, stats.TotalCharactersNoSpace)
	for _, t := range model.AllBlockTypes {
		if n := stats.BlockTypes[t]; n > 0 {
			fmt.Printf("  %-13s %d\n", t.String()+":", n)
		}
	}
	return nil
}

// ExportCmd renders a document to an output format.
type ExportCmd struct {
	ID     string `arg:"" help:"Document id"`
	Format string `name:"format" short:"f" help:"Output format (txt, odt, pdf)"`
	Dir    string `name:"dir" short:"d" help:"Destination directory" type:"path"`
}

func (c *ExportCmd) Run() error {
	m, err := openManager()
	if err != nil {
		return err
	}
	defer m.Close()

	path, err := m.Export(context.Background(), c.ID, c.Dir, c.Format)
	if err != nil {
		return err
	}
	fmt.Printf("Exported to %s\n", path)
	return nil
}

// FormatsCmd prints the export formats compiled into this binary.
type FormatsCmd struct{}

func (c *FormatsCmd) Run() error {
	m, err := openManager()
	if err != nil {
		return err
	}
	defer m.Close()

	fmt.Println(strings.Join(m.AvailableFormats(), "\n"))
	return nil
}

// DuplicateCmd copies a document under a new name.
type DuplicateCmd struct {
	ID   string `arg:"" help:"Source document id"`
	Name string `arg:"" help:"Name for the copy"`
}

func (c *DuplicateCmd) Run() error {
	m, err := openManager()
	if err != nil {
		return err
	}
	defer m.Close()

	dup, err := m.Duplicate(context.Background(), c.ID, c.Name)
	if err != nil {
		return err
	}
	fmt.Printf("Duplicated as %q (%s)\n", dup.Name, dup.ID)
	return nil
}

// DeleteCmd moves a document to the trash.
type DeleteCmd struct {
	ID string `arg:"" help:"Document id"`
}

func (c *DeleteCmd) Run() error {
	m, err := openManager()
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Delete(context.Background(), c.ID); err != nil {
		return err
	}
	fmt.Printf("Moved %s to trash (restore with: tac restore %s)\n", c.ID, c.ID)
	return nil
}

// RestoreCmd restores a trashed document.
type RestoreCmd struct {
	ID string `arg:"" help:"Document id"`
}

func (c *RestoreCmd) Run() error {
	m, err := openManager()
	if err != nil {
		return err
	}
	defer m.Close()

	doc, err := m.RestoreFromTrash(context.Background(), c.ID)
	if err != nil {
		return err
	}
	fmt.Printf("Restored %q (%s)\n", doc.Name, doc.ID)
	return nil
}

// TrashCmd lists documents in the trash.
type TrashCmd struct{}

func (c *TrashCmd) Run() error {
	m, err := openManager()
	if err != nil {
		return err
	}
	defer m.Close()

	ids, err := m.ListTrash()
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Println("Trash is empty.")
		return nil
	}
	for _, id := range ids {
		fmt.Println(id)
	}
	return nil
}

// BackupCreateCmd takes a manual backup.
type BackupCreateCmd struct{}

func (c *BackupCreateCmd) Run() error {
	m, err := openManager()
	if err != nil {
		return err
	}
	defer m.Close()

	path, err := m.CreateBackup(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("Backup written to %s\n", path)
	return nil
}

// BackupListCmd lists backups, newest first.
type BackupListCmd struct{}

func (c *BackupListCmd) Run() error {
	m, err := openManager()
	if err != nil {
		return err
	}
	defer m.Close()

	backups, err := m.ListBackups()
	if err != nil {
		return err
	}
	if len(backups) == 0 {
		fmt.Println("No backups.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PATH\tKIND\tSIZE\tCREATED")
	for _, b := range backups {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
			b.Path, b.Kind, b.Size, b.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

// BackupImportCmd replaces the live store with a backup.
type BackupImportCmd struct {
	Path string `arg:"" help:"Backup file to import" type:"path"`
}

func (c *BackupImportCmd) Run() error {
	m, err := openManager()
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.ImportBackup(context.Background(), c.Path); err != nil {
		return err
	}
	fmt.Printf("Store replaced with %s\n", c.Path)
	return nil
}

// BackupDeleteCmd deletes a backup file.
type BackupDeleteCmd struct {
	Path string `arg:"" help:"Backup file to delete" type:"path"`
}

func (c *BackupDeleteCmd) Run() error {
	m, err := openManager()
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.DeleteBackup(c.Path); err != nil {
		return err
	}
	fmt.Printf("Deleted %s\n", c.Path)
	return nil
}

// MigrateCmd runs the legacy migration explicitly and prints its report.
type MigrateCmd struct{}

func (c *MigrateCmd) Run() error {
	m, err := openManager()
	if err != nil {
		return err
	}
	defer m.Close()

	report, err := m.Migrate(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("State:    %s\n", report.State)
	fmt.Printf("Scanned:  %d\n", report.Scanned)
	fmt.Printf("Migrated: %d\n", report.Migrated)
	if report.BundlePath != "" {
		fmt.Printf("Bundle:   %s\n", report.BundlePath)
	}
	for _, s := range report.Skipped {
		fmt.Printf("Skipped:  %s (%s)\n", s.Path, s.Reason)
	}
	return nil
}

// VacuumCmd compacts the store.
type VacuumCmd struct{}

func (c *VacuumCmd) Run() error {
	m, err := openManager()
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Maintenance(context.Background()); err != nil {
		return err
	}
	fmt.Println("Store compacted.")
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("tac %s\n", version)
	info := sqlite.GetInfo()
	fmt.Printf("sqlite driver: %s (%s)\n", info.DriverName, info.DriverType)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("tac"),
		kong.Description("TAC - continuous argumentation writing tool"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
