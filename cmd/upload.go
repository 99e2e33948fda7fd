// Copyright (c) 2025 QueryMind
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"querymind/cli/internal/backend"
	"querymind/cli/internal/dsn"
	qmerrors "querymind/cli/internal/errors"
	"querymind/cli/internal/render"
	"querymind/cli/internal/schemadump"
	"querymind/cli/internal/watch"
	"querymind/cli/internal/workflow"
)

var (
	uploadFromDB  bool
	uploadWatch   bool
	uploadSchemas []string
	uploadSaveTo  string
)

// uploadCmd sends a schema file to the backend, either from disk or dumped from
// the configured database.
var uploadCmd = &cobra.Command{
	Use:   "upload [file]",
	Short: "Upload a database schema so questions can be answered against it",
	Long: `The upload command sends one schema file to the backend. Any file type is
accepted; .sql and .csv are what the backend understands best, and a warning is
shown for anything else or for SQL without CREATE TABLE statements.

With --from-db the schema is read from the database saved by 'querymind connect'
(or QUERYMIND_DSN / DATABASE_URL) and uploaded as schema.sql.

With --watch the file is uploaded again every time it changes until you press
Ctrl+C. If a new version is saved while an upload is running, only the newest
upload's result is shown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch {
		case uploadFromDB && len(args) > 0:
			return errors.New("pass either a file or --from-db, not both")
		case !uploadFromDB && len(args) == 0:
			return errors.New("no file selected: pass a schema file or --from-db")
		case uploadWatch && uploadFromDB:
			return errors.New("--watch needs a file")
		}

		ctx := cmd.Context()
		if _, err := requireSession(ctx); err != nil {
			return err
		}

		wf := workflow.NewUpload(app.api, workflow.WithLogger(app.log), workflow.WithContext(ctx))
		defer wf.Close()

		if uploadFromDB {
			in, err := dumpSchema(ctx)
			if err != nil {
				return err
			}
			return runUpload(ctx, wf, in)
		}

		in, err := readSchemaFile(args[0])
		if err != nil {
			return err
		}
		if uploadWatch {
			return watchUpload(ctx, wf, args[0], in)
		}
		return runUpload(ctx, wf, in)
	},
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	uploadCmd.Flags().BoolVar(&uploadFromDB, "from-db", false, "Dump the schema from the configured database instead of reading a file")
	uploadCmd.Flags().StringSliceVar(&uploadSchemas, "schema", nil, "Schemas to dump with --from-db (default from the DSN, else public)")
	uploadCmd.Flags().StringVar(&uploadSaveTo, "save", "", "Also write the dumped schema to this path")
	uploadCmd.Flags().BoolVarP(&uploadWatch, "watch", "w", false, "Upload again whenever the file changes")
}

func readSchemaFile(path string) (backend.UploadInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return backend.UploadInput{}, fmt.Errorf("read schema: %w", err)
	}
	return backend.UploadInput{Filename: filepath.Base(path), File: data}, nil
}

// adviseSchema prints non-blocking warnings about the file about to be uploaded.
func adviseSchema(in backend.UploadInput) {
	if !workflow.SuggestedExtension(in.Filename) {
		pterm.Warning.Printfln("%s is not a .sql or .csv file; uploading anyway", in.Filename)
		return
	}
	if !strings.EqualFold(filepath.Ext(in.Filename), ".sql") {
		return
	}
	if n := schemadump.CountTables(in.File); n == 0 {
		pterm.Warning.Printfln("no CREATE TABLE statements found in %s; uploading anyway", in.Filename)
	} else {
		pterm.Info.Printfln("%s: %d table(s) detected", in.Filename, n)
	}
}

func runUpload(ctx context.Context, wf *workflow.UploadWorkflow, in backend.UploadInput) error {
	adviseSchema(in)
	if _, err := wf.Submit(in); err != nil {
		pterm.Error.Println(qmerrors.UserMessage(err))
		return reported(err)
	}

	stop := startSpinner("Uploading " + in.Filename)
	st, err := wf.Wait(ctx)
	stop()
	if err != nil {
		return err
	}

	if st.Phase == workflow.Failed {
		showFailure(st.Reason, st.Err)
		return reported(st.Err)
	}
	render.UploadResult(st.Result)
	return nil
}

// watchUpload resubmits the file on every change. Results of superseded attempts
// never reach OnChange, so only the newest upload is reported.
func watchUpload(ctx context.Context, wf *workflow.UploadWorkflow, path string, in backend.UploadInput) error {
	wf.OnChange(func(st workflow.UploadState) {
		switch st.Phase {
		case workflow.Running:
			pterm.Info.Printfln("uploading %s (attempt %d)", st.Input.Filename, st.Attempt)
		case workflow.Succeeded:
			render.UploadResult(st.Result)
		case workflow.Failed:
			showFailure(st.Reason, st.Err)
		}
	})

	submit := func(in backend.UploadInput) {
		adviseSchema(in)
		if _, err := wf.Submit(in); err != nil {
			pterm.Warning.Println(qmerrors.UserMessage(err))
		}
	}

	w, err := watch.New(path, watch.DefaultDebounce, func(p string) {
		next, err := readSchemaFile(p)
		if err != nil {
			pterm.Warning.Println(err.Error())
			return
		}
		submit(next)
	}, app.log)
	if err != nil {
		return err
	}
	defer w.Close()

	submit(in)
	pterm.Info.Printfln("watching %s, press Ctrl+C to stop", path)
	<-ctx.Done()
	return nil
}

// dumpSchema reads CREATE TABLE statements from the configured database.
func dumpSchema(ctx context.Context) (backend.UploadInput, error) {
	raw, source, err := resolveDSN()
	if err != nil {
		return backend.UploadInput{}, err
	}
	if raw == "" {
		pterm.Warning.Println("No database connection configured.")
		pterm.Println("   Please run 'querymind connect' or set " + envDSN + ".")
		return backend.UploadInput{}, reported(errors.New("no database configured"))
	}
	info, err := dsn.Parse(raw)
	if err != nil {
		pterm.Error.Println(err.Error())
		return backend.UploadInput{}, reported(err)
	}
	schemas := info.Schemas
	if len(uploadSchemas) > 0 {
		schemas = uploadSchemas
	}
	app.log.Debug("dumping schema",
		zap.String("source", string(source)),
		zap.String("dsn", info.Redacted()),
		zap.Strings("schemas", schemas))

	stop := startSpinner("Reading schema from " + info.Database)
	blob, n, err := func() ([]byte, int, error) {
		pool, err := pgxpool.New(ctx, info.String())
		if err != nil {
			return nil, 0, err
		}
		defer pool.Close()
		return schemadump.Dump(ctx, schemadump.NewInspector(pool, app.log), schemas)
	}()
	stop()
	if err != nil {
		pterm.Error.Println("Could not read the database schema.")
		if app.verbose {
			pterm.Println(err.Error())
		}
		return backend.UploadInput{}, reported(err)
	}

	pterm.Info.Printfln("read %d table(s) from %s (%s)", n, info.Database, strings.Join(schemas, ", "))
	if uploadSaveTo != "" {
		if err := os.WriteFile(uploadSaveTo, blob, 0o644); err != nil {
			return backend.UploadInput{}, fmt.Errorf("save schema: %w", err)
		}
	}
	return backend.UploadInput{Filename: schemadump.DefaultFilename, File: blob}, nil
}
