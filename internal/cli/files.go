package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/studyvault/notesdash/internal/catalog"
	"github.com/studyvault/notesdash/internal/constants"
	"github.com/studyvault/notesdash/internal/dashboard"
	"github.com/studyvault/notesdash/internal/models"
	"github.com/studyvault/notesdash/internal/util/filter"
	"github.com/studyvault/notesdash/internal/view"
)

// newFilesCmd creates the 'files' command group.
func newFilesCmd() *cobra.Command {
	filesCmd := &cobra.Command{
		Use:   "files",
		Short: "File management commands",
		Long:  `Commands for listing, uploading, editing, deleting and downloading notes.`,
	}

	filesCmd.AddCommand(newFilesListCmd("list"))
	filesCmd.AddCommand(newFilesUploadCmd("upload <file> [file...]"))
	filesCmd.AddCommand(newFilesDownloadCmd("download [file-id...]"))
	filesCmd.AddCommand(newFilesDeleteCmd())
	filesCmd.AddCommand(newFilesEditCmd())

	return filesCmd
}

// newFilesListCmd creates the 'files list' command.
func newFilesListCmd(use string) *cobra.Command {
	var subject, include, exclude, search, types string

	cmd := &cobra.Command{
		Use:   use,
		Short: "List files on the server",
		Long: `List files with optional filtering.

Examples:
  notesdash files list
  notesdash files list --subject java
  notesdash files list --include "*.pdf" --search "week 1"
  notesdash files list --type pdf,docx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := GetLogger()

			if subject != "" && !catalog.IsKnownSubject(subject) {
				logger.Warn().Str("subject", subject).Msg("not one of the known subjects - see 'notesdash subjects'")
			}

			apiClient, _, err := getAPIClient()
			if err != nil {
				return err
			}

			files, err := apiClient.ListFiles(GetContext(), subject)
			if err != nil {
				return fmt.Errorf("failed to list files: %w", withHint(err))
			}
			// Older servers ignore the subject parameter
			files = catalog.FilterBySubject(files, subject)

			files = filter.Apply(files, filter.Config{
				Include: filter.ParsePatternList(include),
				Exclude: filter.ParsePatternList(exclude),
				Search:  strings.Fields(search),
				Types:   filter.ParsePatternList(types),
			})

			printFileTable(cmd.OutOrStdout(), files)
			return nil
		},
	}

	cmd.Flags().StringVarP(&subject, "subject", "s", "", "Only files of this subject (server-side filter)")
	cmd.Flags().StringVar(&include, "include", "", "Comma-separated glob patterns on the original file name")
	cmd.Flags().StringVar(&exclude, "exclude", "", "Comma-separated glob patterns to leave out")
	cmd.Flags().StringVar(&search, "search", "", "Words that must all appear in title, file name or description")
	cmd.Flags().StringVar(&types, "type", "", "Comma-separated file types, e.g. pdf,docx")

	return cmd
}

// printFileTable writes the files in the same columns as the dashboard table.
func printFileTable(w io.Writer, files []models.FileRecord) {
	if len(files) == 0 {
		fmt.Fprintln(w, view.EmptyTableMessage)
		return
	}

	fmt.Fprintf(w, "%-10s %-32s %-12s %-6s %-10s %s\n", "ID", "TITLE", "SUBJECT", "TYPE", "DATE", "SIZE")
	fmt.Fprintln(w, strings.Repeat("-", 84))
	for _, f := range files {
		title := f.Title
		if len(title) > 32 {
			title = title[:29] + "..."
		}
		size := "-"
		if f.Size > 0 {
			size = view.FormatFileSize(f.Size)
		}
		fmt.Fprintf(w, "%-10s %-32s %-12s %-6s %-10s %s\n",
			f.ID, title, f.Subject, f.Type, view.FormatDate(f.UploadDate), size)
	}
	fmt.Fprintf(w, "\nTotal: %d file(s)\n", len(files))
}

// newFilesUploadCmd creates the 'files upload' command.
func newFilesUploadCmd(use string) *cobra.Command {
	var title, subject, description, url string

	cmd := &cobra.Command{
		Use:   use,
		Short: "Upload files",
		Long: `Upload one or more files with a title and subject.

Without --title each file is titled after its name.

Examples:
  notesdash files upload week1.pdf --title "Week 1" --subject java
  notesdash files upload *.pdf --subject python --description "Lab sheets"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := GetLogger()

			if title != "" && len(args) > 1 {
				logger.Warn().Msg("--title applies to every file in this upload")
			}

			locals := make([]models.LocalFile, 0, len(args))
			for _, path := range args {
				info, err := os.Stat(path)
				if err != nil {
					return fmt.Errorf("cannot read %s: %w", path, err)
				}
				if info.IsDir() {
					return fmt.Errorf("%s is a directory", path)
				}
				if info.Size() > constants.MaxUploadSize {
					return fmt.Errorf("%s is %s, the server accepts at most %s",
						path, view.FormatFileSize(info.Size()), view.FormatFileSize(constants.MaxUploadSize))
				}
				locals = append(locals, models.LocalFile{Path: path, Name: filepath.Base(path), Size: info.Size()})
			}

			apiClient, _, err := getAPIClient()
			if err != nil {
				return err
			}

			session, toasts := newCLISession(GetContext(), apiClient, nil, logger, cmd.OutOrStdout(), cmd.ErrOrStderr())
			defer session.Close()

			for _, local := range locals {
				fileTitle := title
				if fileTitle == "" {
					fileTitle = strings.TrimSuffix(local.Name, filepath.Ext(local.Name))
				}
				session.Dispatch(dashboard.HideUploadSuccess{})
				session.Dispatch(dashboard.SelectFiles{Files: []models.LocalFile{local}})
				session.Dispatch(dashboard.EditUploadField{Field: view.IDFileTitle, Value: fileTitle})
				session.Dispatch(dashboard.EditUploadField{Field: view.IDFileSubject, Value: subject})
				session.Dispatch(dashboard.EditUploadField{Field: view.IDFileDescription, Value: description})
				session.Dispatch(dashboard.EditUploadField{Field: view.IDFileURL, Value: url})
				session.Dispatch(dashboard.SubmitUpload{})
			}

			if n := toasts.Errors(); n > 0 {
				return fmt.Errorf("%d upload(s) failed", n)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Total files on server: %s\n", counterOr(session.State().Surface, view.IDTotalFiles))
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Title shown in the dashboard")
	cmd.Flags().StringVarP(&subject, "subject", "s", "", "Subject key (required), see 'notesdash subjects'")
	cmd.Flags().StringVar(&description, "description", "", "Optional description")
	cmd.Flags().StringVar(&url, "url", "", "Optional related link")

	return cmd
}

// newFilesDeleteCmd creates the 'files delete' command.
func newFilesDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <file-id> [file-id...]",
		Short: "Delete files",
		Long: `Delete files from the server. Each deletion is confirmed unless --yes is given.

Examples:
  notesdash files delete 1a2b3c
  notesdash files delete 1a2b3c 4d5e6f --yes`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, _, err := getAPIClient()
			if err != nil {
				return err
			}

			session, toasts := newCLISession(GetContext(), apiClient, nil, GetLogger(), cmd.OutOrStdout(), cmd.ErrOrStderr())
			defer session.Close()

			// Titles for the confirmation prompt
			session.Dispatch(dashboard.Refresh{})
			in := bufferedInput(cmd.InOrStdin())

			for _, id := range args {
				label := id
				if f, ok := session.State().Find(id); ok {
					label = fmt.Sprintf("%q (%s)", f.Title, id)
				}
				session.Dispatch(dashboard.RequestDelete{ID: id})
				ok := yes || confirm(in, cmd.OutOrStdout(), fmt.Sprintf("Delete %s?", label))
				session.Dispatch(dashboard.ConfirmDelete{Confirmed: ok})
				if !ok {
					fmt.Fprintf(cmd.OutOrStdout(), "Skipped %s\n", id)
				}
			}

			if n := toasts.Errors(); n > 0 {
				return fmt.Errorf("%d operation(s) failed", n)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")

	return cmd
}

// newFilesEditCmd creates the 'files edit' command.
func newFilesEditCmd() *cobra.Command {
	var title, subject, description, url string

	cmd := &cobra.Command{
		Use:   "edit <file-id>",
		Short: "Edit a file's title, subject, description or link",
		Long: `Change the metadata of an uploaded file. Only the given flags change.

Examples:
  notesdash files edit 1a2b3c --title "Week 1 (revised)"
  notesdash files edit 1a2b3c --subject python --url https://example.org/notes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields := map[string]string{}
			if cmd.Flags().Changed("title") {
				fields[view.IDEditTitle] = title
			}
			if cmd.Flags().Changed("subject") {
				fields[view.IDEditSubject] = subject
			}
			if cmd.Flags().Changed("description") {
				fields[view.IDEditDescription] = description
			}
			if cmd.Flags().Changed("url") {
				fields[view.IDEditURL] = url
			}
			if len(fields) == 0 {
				return fmt.Errorf("nothing to change - pass at least one of --title, --subject, --description, --url")
			}

			apiClient, _, err := getAPIClient()
			if err != nil {
				return err
			}

			session, toasts := newCLISession(GetContext(), apiClient, nil, GetLogger(), cmd.OutOrStdout(), cmd.ErrOrStderr())
			defer session.Close()

			// Edits start from the listed record
			session.Dispatch(dashboard.Refresh{})
			if toasts.Errors() > 0 {
				return fmt.Errorf("could not load files")
			}
			session.Dispatch(dashboard.Edit{ID: args[0]})
			if !session.State().Surface.Edit.Open {
				return fmt.Errorf("file %s not found", args[0])
			}

			for field, value := range fields {
				session.Dispatch(dashboard.EditField{Field: field, Value: value})
			}
			session.Dispatch(dashboard.SubmitEdit{})

			if toasts.Errors() > 0 {
				return fmt.Errorf("edit failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "New title")
	cmd.Flags().StringVarP(&subject, "subject", "s", "", "New subject key")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().StringVar(&url, "url", "", "New related link")

	return cmd
}

// counterOr returns a surface counter or "-" when it was never rendered.
func counterOr(s *view.Surface, id string) string {
	if v, ok := s.Counter(id); ok {
		return v
	}
	return "-"
}
