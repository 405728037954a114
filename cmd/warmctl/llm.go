package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/garnizeh/warmconnect/internal/config"
	"github.com/garnizeh/warmconnect/internal/i18n"
	"github.com/garnizeh/warmconnect/internal/icebreaker"
	"github.com/garnizeh/warmconnect/pkg/models"
	"github.com/garnizeh/warmconnect/pkg/ollama"
)

var errModelMissing = errors.New("configured model is not installed")

func (a *app) generator(cmd *cobra.Command) (*icebreaker.Generator, error) {
	completer, err := icebreaker.OpenCompleter(cmd.Context(), a.cfg)
	if err != nil {
		return nil, err
	}
	return icebreaker.New(completer, a.cfg.LLM.Timeout, a.logger), nil
}

func (a *app) icebreakerCmd() *cobra.Command {
	var lang, myRole, targetRole, status string
	cmd := &cobra.Command{
		Use:   "icebreaker",
		Short: "Generate an icebreaker with the configured language model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mine, err := models.ParseRole(myRole)
			if err != nil {
				return err
			}
			theirs, err := models.ParseRole(targetRole)
			if err != nil {
				return err
			}

			gen, err := a.generator(cmd)
			if err != nil {
				return err
			}
			defer gen.Close()

			fmt.Fprintln(cmd.OutOrStdout(), gen.Icebreaker(cmd.Context(), i18n.Base(i18n.Parse(lang)), mine, theirs, status))
			return nil
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "zh", "output language (zh or en)")
	cmd.Flags().StringVar(&myRole, "my-role", string(models.RoleVolunteer), "sender role")
	cmd.Flags().StringVar(&targetRole, "target-role", string(models.RolePatient), "recipient role")
	cmd.Flags().StringVar(&status, "status", "", "recipient status line")

	return cmd
}

func (a *app) encourageCmd() *cobra.Command {
	var lang string
	cmd := &cobra.Command{
		Use:   "encourage",
		Short: "Generate a daily encouragement line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, err := a.generator(cmd)
			if err != nil {
				return err
			}
			defer gen.Close()

			fmt.Fprintln(cmd.OutOrStdout(), gen.Encouragement(cmd.Context(), i18n.Base(i18n.Parse(lang))))
			return nil
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "zh", "output language (zh or en)")

	return cmd
}

// modelsCmd checks the Ollama server and lists its models, flagging the
// configured one.
func (a *app) modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "Check the Ollama server and list its installed models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.LLM.Provider != config.ProviderOllama {
				return fmt.Errorf("models needs llm.provider %q, configured %q", config.ProviderOllama, a.cfg.LLM.Provider)
			}

			client, err := ollama.NewDefaultClient(icebreaker.OllamaConfig(a.cfg))
			if err != nil {
				return err
			}
			defer client.Close()

			ctx := cmd.Context()
			if err := client.Health(ctx); err != nil {
				return err
			}
			installed, err := client.ListModels(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			found := false
			for _, m := range installed {
				mark := ""
				if m.Name == a.cfg.LLM.Model || m.Name == a.cfg.LLM.Model+":latest" {
					mark, found = " *", true
				}
				fmt.Fprintf(out, "%s\t%d%s\n", m.Name, m.Size, mark)
			}
			if a.cfg.LLM.Model != "" && !found {
				return fmt.Errorf("%w: %s", errModelMissing, a.cfg.LLM.Model)
			}

			return nil
		},
	}
}
