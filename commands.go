package main

import (
	"fmt"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/wagnerlima/memory-cloud/archimodel/internal/errors"
	"github.com/wagnerlima/memory-cloud/archimodel/internal/query"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List stored models",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openBackend(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		list, err := store.ListModels(cmd.Context(), modelsSearch, 0)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			pterm.Info.Println("No models found")
			return nil
		}

		data := pterm.TableData{{"ID", "Name", "Version", "Updated"}}
		for _, m := range list {
			data = append(data, []string{m.ID, m.Name, strconv.Itoa(m.Version), m.UpdatedAt.Format("2006-01-02 15:04")})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	},
}

var versionsCmd = &cobra.Command{
	Use:   "versions <model-id>",
	Short: "Show the version log of a model, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openBackend(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		entries, err := store.ListVersions(cmd.Context(), args[0], versionsLimit)
		if err != nil {
			return err
		}

		data := pterm.TableData{{"Version", "Action", "Author", "Message", "Timestamp"}}
		for _, v := range entries {
			data = append(data, []string{strconv.Itoa(v.Version), v.Action, v.Author, v.Message, v.CreatedAt.Format("2006-01-02 15:04:05")})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats <model-id>",
	Short: "Print model statistics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, engine, err := openBackend(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		st, err := engine.Stats(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		pterm.DefaultSection.Printf("%s @ v%d", st.ModelID, st.Version)
		pterm.Printf("Elements: %d  Relationships: %d  Density: %.3f\n",
			st.Counts.Elements, st.Counts.Relationships, st.Density)

		for _, b := range []struct {
			title   string
			buckets []query.Bucket
		}{
			{"By layer", st.ByLayer},
			{"By element type", st.ByElementType},
			{"By relationship category", st.ByCategory},
		} {
			if len(b.buckets) == 0 {
				continue
			}
			pterm.DefaultSection.WithLevel(2).Println(b.title)
			data := pterm.TableData{{"Name", "Count"}}
			for _, row := range b.buckets {
				data = append(data, []string{row.Name, strconv.Itoa(row.Count)})
			}
			if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
				return err
			}
		}
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate <model-id>",
	Short: "Validate a model against the metamodel",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, engine, err := openBackend(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		v, err := engine.Validate(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if len(v.Issues) > 0 {
			data := pterm.TableData{{"Severity", "Code", "Message"}}
			for _, is := range v.Issues {
				data = append(data, []string{is.Severity, is.Code, is.Message})
			}
			if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
				return err
			}
		}

		summary := fmt.Sprintf("%d errors, %d warnings", v.Summary.Errors, v.Summary.Warnings)
		if !v.IsValid {
			pterm.Error.Printfln("%s is invalid: %s", v.ModelName, summary)
			return errors.Newf("model %s failed validation", v.ModelID)
		}
		pterm.Success.Printfln("%s is valid: %s", v.ModelName, summary)
		return nil
	},
}

var (
	modelsSearch  string
	versionsLimit int
)

func init() {
	modelsCmd.Flags().StringVar(&modelsSearch, "search", "", "Filter by name or description")
	versionsCmd.Flags().IntVar(&versionsLimit, "limit", 0, "Number of entries (default from config)")

	rootCmd.AddCommand(modelsCmd, versionsCmd, statsCmd, validateCmd)
}
