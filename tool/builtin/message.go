package builtin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/viant/mcpws/tool"
	"github.com/viant/scy"
	"github.com/viant/scy/cred"
	"go.uber.org/zap"
)

// Email represents a queued outbound email.
type Email struct {
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// SendEmailInput represents send_email arguments.
type SendEmailInput struct {
	To      string `json:"to" description:"recipient address"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// SendTelegramInput represents send_telegram_message arguments.
type SendTelegramInput struct {
	Message string `json:"message" description:"message text"`
	Target  string `json:"target,omitempty" description:"chat id, defaults to the configured chat"`
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
}

func (s *Service) registerMessaging(registry *tool.Registry) error {
	if err := tool.Register[SendEmailInput](registry, "send_email", "Queue an email for delivery", s.sendEmail); err != nil {
		return err
	}
	return tool.Register[SendTelegramInput](registry, "send_telegram_message", "Send a Telegram message through the configured bot", s.sendTelegram)
}

func (s *Service) sendEmail(ctx context.Context, input *SendEmailInput) (string, error) {
	address, err := mail.ParseAddress(input.To)
	if err != nil {
		return "", fmt.Errorf("invalid recipient %q: %w", input.To, err)
	}
	email := Email{To: address.Address, Subject: input.Subject, Body: input.Body, Status: "pending", CreatedAt: s.now()}
	pending := 0
	err = s.emails.Update(ctx, func(items []Email) ([]Email, error) {
		items = append(items, email)
		for _, item := range items {
			if item.Status == "pending" {
				pending++
			}
		}
		return items, nil
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("email to %v queued (%d pending)", email.To, pending), nil
}

func (s *Service) sendTelegram(ctx context.Context, input *SendTelegramInput) (string, error) {
	token, chatID, err := s.telegramCredentials(ctx)
	if err != nil {
		return "", err
	}
	if input.Target != "" {
		chatID = input.Target
	}
	if token == "" || chatID == "" {
		return "", fmt.Errorf("telegram bot was not configured")
	}
	if err = s.limiter.Wait(ctx); err != nil {
		return "", err
	}
	payload, err := json.Marshal(map[string]string{"chat_id": chatID, "text": input.Message})
	if err != nil {
		return "", err
	}
	URL := strings.TrimRight(s.config.Telegram.APIURL, "/") + "/bot" + token + "/sendMessage"
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, URL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	request.Header.Set("Content-Type", "application/json")
	response, err := s.client.Do(request)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err // the request URL embeds the token
		}
		return "", fmt.Errorf("telegram request failed: %w", err)
	}
	defer response.Body.Close()
	body, err := io.ReadAll(io.LimitReader(response.Body, 64*1024))
	if err != nil {
		return "", err
	}
	reply := &telegramResponse{}
	if err = json.Unmarshal(body, reply); err != nil {
		return "", fmt.Errorf("telegram returned %v", response.Status)
	}
	if !reply.OK {
		return "", fmt.Errorf("telegram rejected message: %v", reply.Description)
	}
	return fmt.Sprintf("message sent to %v", chatID), nil
}

// telegramCredentials returns the bot token and chat id, preferring explicit settings over the secret.
func (s *Service) telegramCredentials(ctx context.Context) (string, string, error) {
	config := s.config.Telegram
	if config.Token != "" || config.SecretURL == "" {
		return config.Token, config.ChatID, nil
	}
	secrets := scy.New()
	secret, err := secrets.Load(ctx, scy.NewResource(&cred.Basic{}, config.SecretURL, config.SecretKey))
	if err != nil {
		return "", "", fmt.Errorf("failed to load telegram secret: %w", err)
	}
	basic, ok := secret.Target.(*cred.Basic)
	if !ok {
		return "", "", fmt.Errorf("unexpected telegram secret type: %T", secret.Target)
	}
	chatID := config.ChatID
	if chatID == "" {
		chatID = basic.Username
	}
	s.logger.Debug("loaded telegram secret", zap.String("secret", config.SecretURL))
	return basic.Password, chatID, nil
}
