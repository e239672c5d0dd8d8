package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/angeloszaimis/backup-config/config"
	"github.com/angeloszaimis/backup-config/internal/assembler"
	"github.com/angeloszaimis/backup-config/internal/properties"
	"github.com/angeloszaimis/backup-config/internal/render"
)

var errDrift = errors.New("rendered configuration differs from files on disk")

type renderOptions struct {
	jobs   []string
	inputs []string
	check  bool
}

func newRenderCommand(a *app) *cobra.Command {
	opts := &renderOptions{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render job configuration from input documents",
		Long: `Render resolves the configuration files of the backup server and client
jobs. Input documents hold "properties" and "links" sections; when several are
given they are merged in order, later documents overriding earlier ones.
Without an output directory the files are written to stdout as a YAML stream.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRender(cmd, a, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringSliceVar(&opts.jobs, "job", []string{assembler.ServerJob, assembler.ClientJob}, "jobs to render")
	flags.StringArrayVarP(&opts.inputs, "input", "i", nil, "input document, repeatable; - reads stdin")
	flags.String("output-dir", "", "write files under <dir>/<job>/ instead of stdout")
	flags.BoolVar(&opts.check, "check", false, "compare with files in the output directory instead of writing")

	bindFlag(a.viper, config.KeyOutputDir, flags.Lookup("output-dir"))

	return cmd
}

func runRender(cmd *cobra.Command, a *app, opts *renderOptions) error {
	if len(opts.inputs) == 0 {
		return errors.New("at least one --input is required")
	}

	outputDir := a.cfg.Render.OutputDir
	if opts.check && outputDir == "" {
		return errors.New("--check needs an output directory")
	}

	input, err := loadInput(cmd.InOrStdin(), opts.inputs)
	if err != nil {
		return err
	}

	reqs := make([]render.Request, 0, len(opts.jobs))
	for _, job := range opts.jobs {
		reqs = append(reqs, render.Request{Job: job, Input: input})
	}

	renderer := render.New(render.Options{
		Namespace:  a.cfg.Render.Namespace,
		ClientLink: a.cfg.Render.ClientLink,
		Logger:     a.logger,
	})

	outputs, err := renderer.RenderAll(cmd.Context(), reqs)
	if err != nil {
		a.logger.Error("Render failed",
			slog.String("reason", render.Reason(err)),
			slog.Any("err", err))
		return err
	}

	switch {
	case opts.check:
		return checkOutputs(cmd.OutOrStdout(), outputDir, outputs)
	case outputDir != "":
		for _, out := range outputs {
			if err := render.Write(outputDir, out); err != nil {
				return err
			}
			a.logger.Info("Wrote job configuration",
				slog.String("job", out.Job),
				slog.String("dir", outputDir),
				slog.Int("files", len(out.Files)))
		}
		return nil
	default:
		return writeStream(cmd.OutOrStdout(), outputs)
	}
}

// loadInput merges the input documents in order and decodes the result.
func loadInput(stdin io.Reader, sources []string) (render.Input, error) {
	docs := make([]map[string]any, 0, len(sources))
	for _, src := range sources {
		data, err := readSource(stdin, src)
		if err != nil {
			return render.Input{}, err
		}
		doc, err := properties.Parse(data)
		if err != nil {
			return render.Input{}, fmt.Errorf("%s: %w", src, err)
		}
		docs = append(docs, doc)
	}

	merged, err := properties.Merge(docs[0], docs[1:]...)
	if err != nil {
		return render.Input{}, err
	}

	data, err := yaml.Marshal(merged)
	if err != nil {
		return render.Input{}, fmt.Errorf("encoding merged input: %w", err)
	}

	return render.ParseInput(data)
}

func readSource(stdin io.Reader, src string) ([]byte, error) {
	if src == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return data, nil
}

func writeStream(w io.Writer, outputs []render.Output) error {
	var buf bytes.Buffer
	for _, out := range outputs {
		for _, f := range out.Files {
			if buf.Len() > 0 {
				buf.WriteString("---\n")
			}
			buf.WriteString("# " + path.Join(out.Job, f.Name) + "\n")
			buf.Write(f.Content)
		}
	}

	_, err := w.Write(buf.Bytes())
	return err
}

func checkOutputs(w io.Writer, dir string, outputs []render.Output) error {
	var drifted bool
	for _, out := range outputs {
		drifts, err := render.Check(dir, out)
		if err != nil {
			return err
		}
		for _, d := range drifts {
			drifted = true
			fmt.Fprintf(w, "%s (-on disk +rendered):\n%s\n", d.File, d.Diff)
		}
	}

	if drifted {
		return errDrift
	}
	return nil
}
