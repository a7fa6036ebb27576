package notifier

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/devpulse/devpulse-api/internal/config"
	"github.com/devpulse/devpulse-api/internal/models"
	"github.com/sirupsen/logrus"
)

type Notifier interface {
	NotifyBadgeAward(user models.User, badge models.Badge) error
}

type DiscordNotifier struct {
	session   *discordgo.Session
	channelID string
}

func NewDiscordNotifier(cfg *config.Config) (*DiscordNotifier, error) {
	if cfg.DiscordBotToken == "" || cfg.DiscordNotificationsChannelID == "" {
		return nil, fmt.Errorf("discord notifier not configured")
	}

	session, err := discordgo.New("Bot " + cfg.DiscordBotToken)
	if err != nil {
		return nil, err
	}

	return &DiscordNotifier{
		session:   session,
		channelID: cfg.DiscordNotificationsChannelID,
	}, nil
}

func (n *DiscordNotifier) NotifyBadgeAward(user models.User, badge models.Badge) error {
	if n.session == nil {
		return fmt.Errorf("discord session is nil")
	}
	if n.channelID == "" {
		return fmt.Errorf("discord channel ID is empty")
	}

	message := fmt.Sprintf("🏆 **Badge Earned**\n**User:** %s\n**Badge:** %s (%d pts)\n**%s**",
		user.Username,
		badge.Name,
		badge.Points,
		badge.Description,
	)

	_, err := n.session.ChannelMessageSend(n.channelID, message)
	if err != nil {
		logrus.Warnf("Failed to send discord message: %v", err)
		return err
	}

	return nil
}
