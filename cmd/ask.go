package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

const askSystemPrompt = `You are a Counter-Strike coaching analyst. You are given the output of a
zone-analytics tool for one recorded match and a question from the coaching staff.

Rules:
- Answer ONLY from the data provided. Never invent or estimate statistics.
- Cite the specific numbers you rely on.
- If the data cannot answer the question, say so explicitly.
- Be concise and practical.

Glossary:
- dominance.counts: distinct (x, y) positions each team/side occupied inside the chokepoint polygon.
- dominance.winner: the team/side with the most such positions.
- entry_time.average_seconds: floor of the summed start seconds of all site-entry intervals
  divided by the number of intervals that overlap another player's interval.
- entry_time.players: per-player runs of consecutive seconds spent in the site with a rifle or SMG.
- heatmap.centroid: floored mean (x, y, z) of the team's distinct positions inside the site.
- answers with "No answer" mean the tool found no qualifying data.`

var (
	askAPIKey string
	askTeam   string
	askArea   string
	askRender bool
)

var askCmd = &cobra.Command{
	Use:   "ask <id-prefix> <question>",
	Short: "Ask a grounded coaching question about a dataset (requires ANTHROPIC_API_KEY)",
	Args:  cobra.ExactArgs(2),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().String("model", "", "Anthropic model to use (default from config ask.model)")
	askCmd.Flags().StringVar(&askAPIKey, "api-key", "", "Anthropic API key (falls back to $ANTHROPIC_API_KEY)")
	askCmd.Flags().StringVar(&askTeam, "team", "Team2", "team the computed brief covers")
	askCmd.Flags().StringVar(&askArea, "area", "BombsiteB", "site the computed brief covers")
	askCmd.Flags().BoolVar(&askRender, "markdown", false, "buffer the answer and render it as markdown")
}

func runAsk(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	b, err := buildBrief(newService(db), args[0], askTeam, askArea)
	if err != nil {
		return err
	}
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode brief: %w", err)
	}
	log.Debug().Str("model", cfg.AskModel).Int("bytes", len(data)).Msg("sending brief")
	return callAnthropic(cmd.Context(), askAPIKey, cfg.AskModel, string(data), args[1], askRender)
}

// callAnthropic streams a response from the Anthropic API and prints it to
// stdout. With render set the text is collected and printed once as
// terminal-styled markdown.
func callAnthropic(ctx context.Context, apiKey, modelID, dataJSON, question string, render bool) error {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return fmt.Errorf("no API key: set ANTHROPIC_API_KEY or use --api-key")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	userMsg := fmt.Sprintf("DATA:\n%s\n\nQUESTION: %s", dataJSON, question)

	stream := client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(modelID),
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: askSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userMsg)),
		},
	})

	var buf strings.Builder
	fmt.Fprintln(os.Stdout)
	for stream.Next() {
		evt := stream.Current()
		if evt.Type == "content_block_delta" {
			delta := evt.AsContentBlockDelta()
			if delta.Delta.Type == "text_delta" {
				text := delta.Delta.AsTextDelta().Text
				if render {
					buf.WriteString(text)
				} else {
					fmt.Fprint(os.Stdout, text)
				}
			}
		}
	}

	if render && buf.Len() > 0 {
		out, err := glamour.Render(buf.String(), "dark")
		if err != nil {
			log.Warn().Err(err).Msg("markdown render failed, printing raw text")
			out = buf.String()
		}
		fmt.Fprint(os.Stdout, out)
	}
	fmt.Fprintln(os.Stdout)

	if err := stream.Err(); err != nil {
		if msg := err.Error(); strings.Contains(msg, "401") || strings.Contains(msg, "authentication") {
			return fmt.Errorf("API authentication failed, check your API key")
		}
		return fmt.Errorf("streaming error: %w", err)
	}
	return nil
}
