package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"vfs-go/internal/app"
	"vfs-go/internal/config"
	"vfs-go/internal/database"
	"vfs-go/internal/vfs"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func readConfig() (*config.Config, string, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, "", fmt.Errorf("getting defaults: %w", err)
	}
	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, "", fmt.Errorf("reading config: %w", err)
	}
	return cfg, defaults["config_path"], nil
}

// newApp reads the config, applies the --user and --role overrides and
// creates a VFSApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "CreateFolder", "DeleteFile").
func newApp(cmd *cobra.Command, operation string) (*app.VFSApp, error) {
	cfg, _, err := readConfig()
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("user") {
		cfg.Caller.UserID, _ = cmd.Flags().GetInt64("user")
	}
	if cmd.Flags().Changed("role") {
		cfg.Caller.Role, _ = cmd.Flags().GetString("role")
	}

	a, err := app.NewVFSApp(cmd.Context(), cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// folderFlag reads an id flag where 0 means the caller's root.
func folderFlag(cmd *cobra.Command, name string) *int64 {
	id, _ := cmd.Flags().GetInt64(name)
	if id == 0 {
		return nil
	}
	return &id
}

// confirm asks for a yes/no answer when stdin is a terminal. Without a
// terminal, or with --yes, the answer is yes.
func confirm(cmd *cobra.Command, prompt string) bool {
	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		return true
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return true
	}
	fmt.Printf("%s [y/N] ", prompt)
	answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func printUsages(usages []vfs.Usage) {
	for _, u := range usages {
		fmt.Printf("  #%d  %-16s  %s\n", u.ContentID, u.Kind, u.Title)
	}
}

var rootCmd = &cobra.Command{
	Use:          "vfs",
	Short:        "Virtual file and folder store",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration and database",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}
		if err := migrate(cfg); err != nil {
			return err
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", cfg.BaseDir)
		fmt.Printf("Storage:  %s %s\n", cfg.Storage.Type, cfg.Storage.FSRoot)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := readConfig()
		if err != nil {
			return err
		}

		fmt.Printf("Configuration from %s:\n\n", path)
		fmt.Printf("Base Dir: %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:  %s\n", cfg.LogDir)
		fmt.Printf("Database: %s %s\n", cfg.Database.Type, cfg.Database.DataDir)
		switch cfg.Storage.Type {
		case "s3":
			fmt.Printf("Storage:  s3 bucket=%s region=%s prefix=%s\n", cfg.Storage.S3Bucket, cfg.Storage.S3Region, cfg.Storage.S3Prefix)
		default:
			fmt.Printf("Storage:  %s %s\n", cfg.Storage.Type, cfg.Storage.FSRoot)
		}
		fmt.Printf("Caller:   user %d (%s)\n", cfg.Caller.UserID, cfg.Caller.Role)
		return nil
	},
}

// db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the metadata database",
}

func migrate(cfg *config.Config) error {
	db, err := database.NewDatabaseFromConfig(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	return nil
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := readConfig()
		if err != nil {
			return err
		}
		if err := migrate(cfg); err != nil {
			return err
		}
		fmt.Println("Database is up to date.")
		return nil
	},
}

var dbBackupCmd = &cobra.Command{
	Use:   "backup FILE",
	Short: "Write a copy of the metadata database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "BackupDatabase")
		if err != nil {
			return err
		}
		defer a.Close()

		f, err := os.OpenFile(args[0], os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
		if err != nil {
			return fmt.Errorf("creating backup file: %w", err)
		}
		defer f.Close()

		n, err := a.BackupDatabase(f)
		if err != nil {
			return err
		}
		fmt.Printf("Wrote %d bytes to %s\n", n, args[0])
		return nil
	},
}

// folder command
var folderCmd = &cobra.Command{
	Use:   "folder",
	Short: "Manage folders",
}

var folderCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "CreateFolder")
		if err != nil {
			return err
		}
		defer a.Close()

		folder, err := a.CreateFolder(cmd.Context(), args[0], folderFlag(cmd, "parent"))
		if err != nil {
			return err
		}
		fmt.Printf("#%d  %s  (%s)\n", folder.ID, folder.VirtualPath, folder.Path)
		return nil
	},
}

var folderRenameCmd = &cobra.Command{
	Use:   "rename ID NAME",
	Short: "Rename a folder",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp(cmd, "RenameFolder")
		if err != nil {
			return err
		}
		defer a.Close()

		folder, err := a.RenameFolder(cmd.Context(), id, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("#%d  %s  (%s)\n", folder.ID, folder.VirtualPath, folder.Path)
		return nil
	},
}

var folderRmCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Delete a folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if force && !confirm(cmd, fmt.Sprintf("Delete folder %d and everything below it?", id)) {
			return errors.New("aborted")
		}

		a, err := newApp(cmd, "DeleteFolder")
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.DeleteFolder(cmd.Context(), id, force)
		if err != nil {
			if errors.Is(err, vfs.ErrNotEmpty) {
				return fmt.Errorf("%w (use --force to delete its contents)", err)
			}
			return err
		}
		fmt.Printf("Deleted %d folder(s) and %d file(s)\n", len(result.DeletedFolderIDs), len(result.DeletedFileIDs))
		return nil
	},
}

var folderLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List folders and files",
	RunE: func(cmd *cobra.Command, args []string) error {
		parent := folderFlag(cmd, "parent")

		a, err := newApp(cmd, "ListFolders")
		if err != nil {
			return err
		}
		defer a.Close()

		folders, err := a.ListFolders(cmd.Context(), parent)
		if err != nil {
			return err
		}
		files, err := a.ListFiles(cmd.Context(), parent)
		if err != nil {
			return err
		}

		if len(folders) == 0 && len(files) == 0 {
			fmt.Println("Empty.")
			return nil
		}
		for _, f := range folders {
			fmt.Printf("d  #%-6d  %s/\n", f.ID, f.Name)
		}
		for _, f := range files {
			fmt.Printf("-  #%-6d  %s  %d  %s\n", f.ID, f.OriginalName, f.Size, f.MimeType)
		}
		return nil
	},
}

var folderTreeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print the folder tree as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, _ := cmd.Flags().GetInt64("owner")

		a, err := newApp(cmd, "FolderTree")
		if err != nil {
			return err
		}
		defer a.Close()

		tree, err := a.FolderTree(cmd.Context(), owner)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(tree)
	},
}

// file command
var fileCmd = &cobra.Command{
	Use:   "file",
	Short: "Manage files",
}

var fileUploadCmd = &cobra.Command{
	Use:   "upload PATH",
	Short: "Upload a local file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mimeType, _ := cmd.Flags().GetString("mime")

		a, err := newApp(cmd, "UploadFile")
		if err != nil {
			return err
		}
		defer a.Close()

		file, err := a.UploadFile(cmd.Context(), args[0], folderFlag(cmd, "folder"), mimeType)
		if err != nil {
			return err
		}
		fmt.Printf("#%d  %s  %d bytes  %s\n", file.ID, file.VirtualPath, file.Size, vfs.FileURL(file))
		return nil
	},
}

var fileRmCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Delete a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if force && !confirm(cmd, fmt.Sprintf("Delete file %d even if content uses it?", id)) {
			return errors.New("aborted")
		}

		a, err := newApp(cmd, "DeleteFile")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.DeleteFile(cmd.Context(), id, force); err != nil {
			var vfsErr *vfs.Error
			if errors.As(err, &vfsErr) && vfsErr.Kind == vfs.KindInUse {
				fmt.Println("File is used by:")
				printUsages(vfsErr.Usages)
				return fmt.Errorf("%w (use --force to delete anyway)", err)
			}
			return err
		}
		fmt.Printf("Deleted file %d\n", id)
		return nil
	},
}

var fileMvCmd = &cobra.Command{
	Use:   "mv ID",
	Short: "Move a file to another folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp(cmd, "MoveFile")
		if err != nil {
			return err
		}
		defer a.Close()

		file, err := a.MoveFile(cmd.Context(), id, folderFlag(cmd, "folder"))
		if err != nil {
			return err
		}
		fmt.Printf("#%d  %s  (%s)\n", file.ID, file.VirtualPath, file.Path)
		return nil
	},
}

var fileURLCmd = &cobra.Command{
	Use:   "url ID",
	Short: "Show the URLs of a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp(cmd, "FileURL")
		if err != nil {
			return err
		}
		defer a.Close()

		stable, public, err := a.FileURLs(cmd.Context(), id)
		if err != nil {
			return err
		}
		fmt.Printf("Stable: %s\n", stable)
		fmt.Printf("Public: %s\n", public)
		return nil
	},
}

var fileUsagesCmd = &cobra.Command{
	Use:   "usages ID...",
	Short: "Show the content using files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids := make([]int64, len(args))
		for i, arg := range args {
			id, err := parseID(arg)
			if err != nil {
				return err
			}
			ids[i] = id
		}

		a, err := newApp(cmd, "FileUsages")
		if err != nil {
			return err
		}
		defer a.Close()

		usages, err := a.FileUsages(cmd.Context(), ids)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if len(usages[id]) == 0 {
				fmt.Printf("File %d: unused\n", id)
				continue
			}
			fmt.Printf("File %d:\n", id)
			printUsages(usages[id])
		}
		return nil
	},
}

// storage command
var storageCmd = &cobra.Command{
	Use:   "storage",
	Short: "Inspect the storage backend",
}

var storageLsCmd = &cobra.Command{
	Use:   "ls [PREFIX]",
	Short: "List backend objects below a prefix",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prefix := ""
		if len(args) > 0 {
			prefix = args[0]
		}

		a, err := newApp(cmd, "ListStorage")
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		objects, err := a.ListStorage(ctx, prefix)
		if err != nil {
			return err
		}
		if len(objects) == 0 {
			fmt.Printf("No objects in %s storage.\n", a.Backend().Kind())
			return nil
		}
		for _, o := range objects {
			if o.IsDirectory {
				fmt.Printf("%-40s  %10s\n", o.Path+"/", "-")
				continue
			}
			fmt.Printf("%-40s  %10d  %s\n", o.Path, o.Size, o.LastModified.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View operation history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp(cmd, "GetHistory")
		if err != nil {
			return err
		}
		defer a.Close()

		ops, err := a.GetHistory(cmd.Context(), limit)
		if err != nil {
			return err
		}

		if len(ops) == 0 {
			fmt.Println("No operations recorded.")
			return nil
		}

		for _, op := range ops {
			duration := ""
			if op.FinishedAt.Valid {
				d := op.FinishedAt.Time.Sub(op.StartedAt)
				duration = d.Truncate(time.Millisecond).String()
			}
			fmt.Printf("#%d  %-15s  %s  %-8s  %-8s  %s\n",
				op.ID,
				op.Operation,
				op.StartedAt.Format("2006-01-02 15:04:05"),
				op.Status,
				duration,
				op.Parameters,
			)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().Int64("user", 0, "Act as this user id (default from config)")
	rootCmd.PersistentFlags().String("role", "", "Act with this role: user, editor or admin (default from config)")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// db subcommands
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbBackupCmd)

	// folder subcommands
	folderCmd.AddCommand(folderCreateCmd)
	folderCreateCmd.Flags().Int64P("parent", "p", 0, "Parent folder id (default: root)")
	folderCmd.AddCommand(folderRenameCmd)
	folderCmd.AddCommand(folderRmCmd)
	folderRmCmd.Flags().BoolP("force", "f", false, "Delete all folders and files below")
	folderRmCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	folderCmd.AddCommand(folderLsCmd)
	folderLsCmd.Flags().Int64P("parent", "p", 0, "Folder to list (default: root)")
	folderCmd.AddCommand(folderTreeCmd)
	folderTreeCmd.Flags().Int64("owner", 0, "Owner whose tree to print (default: caller)")

	// file subcommands
	fileCmd.AddCommand(fileUploadCmd)
	fileUploadCmd.Flags().Int64P("folder", "d", 0, "Target folder id (default: root)")
	fileUploadCmd.Flags().String("mime", "", "MIME type (default: detected)")
	fileCmd.AddCommand(fileRmCmd)
	fileRmCmd.Flags().BoolP("force", "f", false, "Delete even if content uses the file")
	fileRmCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	fileCmd.AddCommand(fileMvCmd)
	fileMvCmd.Flags().Int64P("folder", "d", 0, "Target folder id (default: root)")
	fileCmd.AddCommand(fileURLCmd)
	fileCmd.AddCommand(fileUsagesCmd)

	// storage subcommands
	storageCmd.AddCommand(storageLsCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(folderCmd)
	rootCmd.AddCommand(fileCmd)
	rootCmd.AddCommand(storageCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of operations to show")
}
