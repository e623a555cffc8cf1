package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"redscraper/pkg/creds"
	"redscraper/pkg/ui"
)

var credsCmd = &cobra.Command{
	Use:   "creds",
	Short: "Manage stored notification credentials",
	Long: `Store Discord and Telegram credentials in the system keychain (or an
encrypted file when no keychain is available) so they do not have to be
passed as flags or environment variables on every run.`,
}

var credsSetCmd = &cobra.Command{
	Use:   "set [profile]",
	Short: "Store notification credentials for a profile",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile := creds.DefaultProfile
		if len(args) == 1 {
			profile = args[0]
		}

		webhook, err := creds.PromptSecret("Discord webhook URL (empty to skip)")
		if err != nil {
			return err
		}
		token, err := creds.PromptSecret("Telegram bot token (empty to skip)")
		if err != nil {
			return err
		}
		chatID := ""
		if token != "" {
			chatID, err = creds.PromptLine("Telegram chat id")
			if err != nil {
				return err
			}
		}

		secrets := &creds.Secrets{
			Profile:           profile,
			DiscordWebhookURL: webhook,
			TelegramBotToken:  token,
			TelegramChatID:    chatID,
		}
		if secrets.IsEmpty() {
			return fmt.Errorf("nothing to store: no channel was configured")
		}

		manager, err := creds.NewManager()
		if err != nil {
			return err
		}
		if err := manager.Save(secrets); err != nil {
			return err
		}
		ui.PrintSuccess("Stored credentials for profile %q", profile)
		return nil
	},
}

var credsShowCmd = &cobra.Command{
	Use:   "show [profile]",
	Short: "Show stored credentials with secrets masked",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile := creds.DefaultProfile
		if len(args) == 1 {
			profile = args[0]
		}

		manager, err := creds.NewManager()
		if err != nil {
			return err
		}
		secrets, err := manager.Load(profile)
		if err != nil {
			return fmt.Errorf("no credentials stored for profile %q", profile)
		}

		ui.PrintHeader("Profile %q", profile)
		if secrets.DiscordWebhookURL != "" {
			ui.PrintKeyValue("Discord webhook", creds.Mask(secrets.DiscordWebhookURL))
		}
		if secrets.TelegramBotToken != "" {
			ui.PrintKeyValue("Telegram token", creds.Mask(secrets.TelegramBotToken))
			ui.PrintKeyValue("Telegram chat", secrets.TelegramChatID)
		}
		ui.PrintKeyValue("Last modified", secrets.LastModified.Format("2006-01-02 15:04:05"))
		return nil
	},
}

var credsDeleteCmd = &cobra.Command{
	Use:   "delete [profile]",
	Short: "Delete stored credentials for a profile",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile := creds.DefaultProfile
		if len(args) == 1 {
			profile = args[0]
		}

		manager, err := creds.NewManager()
		if err != nil {
			return err
		}
		if err := manager.Delete(profile); err != nil {
			return fmt.Errorf("no credentials stored for profile %q", profile)
		}
		ui.PrintSuccess("Deleted credentials for profile %q", profile)
		return nil
	},
}

func init() {
	credsCmd.AddCommand(credsSetCmd, credsShowCmd, credsDeleteCmd)
}
