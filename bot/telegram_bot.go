package bot

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"regbot/services"
)

// Fixed bot replies.
const (
	startMessage    = "سلام! من ربات پاسخگوی آیین‌نامه‌های آموزشی هستم. سوال خود را بپرسید."
	helpMessage     = "من بر اساس آیین‌نامه‌های آموزشی دانشگاه به سوالات پاسخ می‌دهم. کافی است سوال خود را تایپ کنید."
	nonTextMessage  = "لطفاً فقط پیام متنی ارسال کنید. فایل، عکس و ... پشتیبانی نمی‌شود."
	failureMessage  = "متاسفانه در پردازش درخواست شما خطایی رخ داد."
	sourcesHeading  = "📚 منابع:"
	maxListedSource = 3
)

// Bot is the Telegram transport: inbound text messages are routed through the
// same chat pipeline as the HTTP API, keyed by the Telegram user id as the
// session id.
type Bot struct {
	api  *tgbotapi.BotAPI
	chat *services.ChatService
}

func New(token string, chat *services.ChatService) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &Bot{api: api, chat: chat}, nil
}

// Run long-polls for updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) {
	log.Printf("BOT: Authorized as @%s", b.api.Self.UserName)

	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = 30
	updates := b.api.GetUpdatesChan(updateCfg)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			log.Println("BOT: Context cancelled, shutting down.")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			b.reply(msg.Chat.ID, startMessage)
		case "help":
			b.reply(msg.Chat.ID, helpMessage)
		}
		return
	}

	if msg.Text == "" {
		b.reply(msg.Chat.ID, nonTextMessage)
		return
	}

	typing := tgbotapi.NewChatAction(msg.Chat.ID, tgbotapi.ChatTyping)
	if _, err := b.api.Request(typing); err != nil {
		log.Printf("BOT WARN: failed to send typing action: %v", err)
	}

	sessionID := strconv.FormatInt(msg.From.ID, 10)
	response, sources, err := b.chat.GenerateChatResponse(ctx, msg.Text, sessionID)
	if err != nil {
		log.Printf("BOT ERROR: failed to process message: %v", err)
		b.reply(msg.Chat.ID, failureMessage)
		return
	}

	if footer := formatSources(sources); footer != "" {
		response += "\n\n" + footer
	}

	out := tgbotapi.NewMessage(msg.Chat.ID, response)
	out.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(out); err != nil {
		log.Printf("BOT ERROR: failed to send response: %v", err)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.Printf("BOT ERROR: failed to send reply: %v", err)
	}
}

// formatSources renders the citation footer. Sources arrive already
// deduplicated by title; each entry is hyperlinked when its metadata carries
// a url.
func formatSources(sources []map[string]string) string {
	if len(sources) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(sourcesHeading)
	for i, source := range sources {
		if i == maxListedSource {
			break
		}
		title := source["title"]
		if title == "" {
			title = "Unknown Source"
		}
		sb.WriteString("\n")
		if url := source["url"]; url != "" {
			sb.WriteString(fmt.Sprintf("%d. [%s](%s)", i+1, title, url))
		} else {
			sb.WriteString(fmt.Sprintf("%d. %s", i+1, title))
		}
	}
	return sb.String()
}
