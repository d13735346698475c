package cli

import (
	"github.com/spf13/cobra"
)

// AddShortcuts adds shortcut commands to the root command.
// Shortcuts are the files subcommands under shorter names.
func AddShortcuts(rootCmd *cobra.Command) {
	rootCmd.AddCommand(shortcut(newFilesUploadCmd("upload <file> [file...]"), "files upload"))
	rootCmd.AddCommand(shortcut(newFilesDownloadCmd("download [file-id...]"), "files download"))
	rootCmd.AddCommand(shortcut(newFilesListCmd("ls"), "files list"))
}

// shortcut relabels cmd as an alias of target.
func shortcut(cmd *cobra.Command, target string) *cobra.Command {
	cmd.Short += " (shortcut for '" + target + "')"
	cmd.Long = "Shortcut for '" + target + "'.\n\n" + cmd.Long
	return cmd
}
