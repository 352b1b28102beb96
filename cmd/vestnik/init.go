package main

import (
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var chatIDPattern = regexp.MustCompile(`^-?\d+$`)

const configTemplate = `version: "1"

modules:
  store.sqlite: {}

  channel.telegram:
    token: ${TELEGRAM_TOKEN}
    mode: %s

  gateway.http:
    bind: 127.0.0.1:8080

  bot.submissions:
    admin_chat_id: %s
    channel_id: %s
`

// initCmd interactively writes a starter configuration file.
func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [path]",
		Short: "Create a configuration file interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path := "vestnik.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists, refusing to overwrite", path)
			}

			var adminChat, channelID string
			mode := "polling"

			form := huh.NewForm(
				huh.NewGroup(
					huh.NewInput().
						Title("Admin chat ID").
						Description("The group chat where moderators review submissions").
						Validate(validateChatID).
						Value(&adminChat),
					huh.NewInput().
						Title("Channel ID").
						Description("The channel approved posts are published to").
						Validate(validateChatID).
						Value(&channelID),
					huh.NewSelect[string]().
						Title("Update mode").
						Options(
							huh.NewOption("Long polling (no public URL needed)", "polling"),
							huh.NewOption("Webhook (requires HTTPS endpoint)", "webhook"),
						).
						Value(&mode),
				),
			)
			if err := form.Run(); err != nil {
				return err
			}

			content := fmt.Sprintf(configTemplate, mode, adminChat, channelID)
			if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}

			fmt.Printf("Wrote %s\n", path)
			fmt.Println("Set TELEGRAM_TOKEN in the environment (or an .env file), then run: vestnik start")
			return nil
		},
	}
}

func validateChatID(s string) error {
	if !chatIDPattern.MatchString(s) {
		return fmt.Errorf("must be a numeric Telegram chat ID")
	}
	if _, err := strconv.ParseInt(s, 10, 64); err != nil {
		return fmt.Errorf("must fit in a 64-bit integer")
	}
	return nil
}
