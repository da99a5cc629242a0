package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/Alias1177/RegimeTrader/internal/model"
	"github.com/Alias1177/RegimeTrader/internal/provider"
	"github.com/Alias1177/RegimeTrader/internal/strategy"
	"github.com/Alias1177/RegimeTrader/internal/trading/backtest"
)

// User state stages
const (
	StageInitial        = 0
	StageAwaitingTicker = 1
	StageAwaitingStart  = 2
	StageAwaitingEnd    = 3
)

const (
	buttonRunBacktest    = "Run Backtest"
	buttonCancel         = "Cancel"
	callbackTickerPrefix = "ticker:"

	// Telegram rejects messages longer than this.
	maxMessageLength = 4096
)

var quickTickers = []string{"SPY", "QQQ", "AAPL", "MSFT"}

// UserState represents the current state of a user's interaction
type UserState struct {
	Stage        int       // 0: initial, 1: awaiting ticker, 2: awaiting start, 3: awaiting end
	Ticker       string    // selected ticker
	Start        time.Time // selected first day
	LastActivity time.Time // time of last activity
}

// sender is the part of *tgbotapi.BotAPI the handler uses.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// analyzer runs one fetch and pipeline pass.
type analyzer interface {
	Analyze(ctx context.Context, ticker string, start, end time.Time) (*model.Report, error)
}

// Handler drives the ticker -> start -> end conversation and replies with reports.
// Updates are handled one at a time, so states needs no locking.
type Handler struct {
	bot           sender
	analyzer      analyzer
	defaultTicker string
	states        map[int64]*UserState
	now           func() time.Time
	logger        zerolog.Logger
}

// NewHandler creates a conversation handler.
func NewHandler(bot sender, a analyzer, defaultTicker string, logger zerolog.Logger) *Handler {
	return &Handler{
		bot:           bot,
		analyzer:      a,
		defaultTicker: defaultTicker,
		states:        make(map[int64]*UserState),
		now:           time.Now,
		logger:        logger,
	}
}

// HandleUpdate dispatches one Telegram update.
func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		h.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		h.handleCallback(ctx, update.CallbackQuery)
	}
}

func (h *Handler) state(chatID int64) *UserState {
	state, ok := h.states[chatID]
	if !ok {
		state = &UserState{Stage: StageInitial}
		h.states[chatID] = state
	}
	state.LastActivity = h.now()
	return state
}

func (h *Handler) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	text := strings.TrimSpace(message.Text)
	state := h.state(chatID)

	h.logger.Debug().Int64("chat_id", chatID).Int("stage", state.Stage).Str("text", text).Msg("Message received")

	if message.IsCommand() {
		switch message.Command() {
		case "start", "help":
			state.Stage = StageInitial
			h.sendMenu(chatID, "Welcome to the Regime Backtest Bot!\n\n"+
				"I classify a ticker's market regime, pick Momentum or Mean-Reversion for it and backtest the signal on daily bars.\n\n"+
				"Tap \"Run Backtest\" or send /backtest TICKER START END (dates as YYYY-MM-DD).")
		case "backtest":
			h.handleBacktestCommand(ctx, chatID, state, message.CommandArguments())
		case "strategies":
			h.reply(chatID, "Strategies: "+strings.Join(strategy.DefaultRegistry().List(), ", ")+
				"\nThe bot selects one from the market regime.")
		case "cancel":
			h.reset(chatID, state)
		default:
			h.reply(chatID, "Unknown command. Use /start to see what I can do.")
		}
		return
	}

	switch {
	case text == buttonCancel:
		h.reset(chatID, state)
	case text == buttonRunBacktest:
		h.askTicker(chatID, state)
	case state.Stage == StageAwaitingTicker:
		h.acceptTicker(chatID, state, text)
	case state.Stage == StageAwaitingStart:
		start, err := h.parseDay(text, h.today().AddDate(-1, 0, 0))
		if err != nil {
			h.reply(chatID, "Please send the start date as YYYY-MM-DD, or \"-\" for one year ago.")
			return
		}
		state.Start = start
		state.Stage = StageAwaitingEnd
		h.reply(chatID, fmt.Sprintf("Start: %s\nNow send the end date as YYYY-MM-DD, or \"-\" for today.", start.Format(model.DateLayout)))
	case state.Stage == StageAwaitingEnd:
		end, err := h.parseDay(text, h.today())
		if err != nil {
			h.reply(chatID, "Please send the end date as YYYY-MM-DD, or \"-\" for today.")
			return
		}
		ticker, start := state.Ticker, state.Start
		state.Stage = StageInitial
		h.runBacktest(ctx, chatID, ticker, start, end)
	default:
		h.sendMenu(chatID, "Please use the menu buttons to interact with the bot.")
	}
}

func (h *Handler) handleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	// Acknowledge the callback
	if _, err := h.bot.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to acknowledge callback")
	}
	if callback.Message == nil {
		return
	}

	chatID := callback.Message.Chat.ID
	state := h.state(chatID)

	if ticker, ok := strings.CutPrefix(callback.Data, callbackTickerPrefix); ok && state.Stage == StageAwaitingTicker {
		h.acceptTicker(chatID, state, ticker)
	}
}

// handleBacktestCommand runs "/backtest TICKER START END" directly, or starts the
// conversation when arguments are missing.
func (h *Handler) handleBacktestCommand(ctx context.Context, chatID int64, state *UserState, args string) {
	fields := strings.Fields(args)
	switch len(fields) {
	case 0:
		h.askTicker(chatID, state)
	case 3:
		start, errStart := time.Parse(model.DateLayout, fields[1])
		end, errEnd := time.Parse(model.DateLayout, fields[2])
		if errStart != nil || errEnd != nil {
			h.reply(chatID, "Dates must be YYYY-MM-DD, e.g. /backtest SPY 2023-01-01 2023-12-31")
			return
		}
		state.Stage = StageInitial
		h.runBacktest(ctx, chatID, fields[0], start, end)
	default:
		h.reply(chatID, "Usage: /backtest TICKER START END, e.g. /backtest SPY 2023-01-01 2023-12-31")
	}
}

func (h *Handler) askTicker(chatID int64, state *UserState) {
	state.Stage = StageAwaitingTicker
	state.Ticker = ""

	tickers := quickTickers
	if h.defaultTicker != "" && !contains(tickers, h.defaultTicker) {
		tickers = append([]string{h.defaultTicker}, tickers...)
	}
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(tickers))
	for _, t := range tickers {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(t, callbackTickerPrefix+t))
	}

	msg := tgbotapi.NewMessage(chatID, "Send a ticker symbol or pick one below:")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(row)
	h.send(msg)
}

func (h *Handler) acceptTicker(chatID int64, state *UserState, text string) {
	ticker := provider.NormalizeTicker(text)
	if ticker == "" || strings.ContainsAny(ticker, " \t") {
		h.reply(chatID, "Invalid ticker. Send a symbol such as SPY.")
		return
	}
	state.Ticker = ticker
	state.Stage = StageAwaitingStart
	h.reply(chatID, fmt.Sprintf("Selected ticker: %s\nNow send the start date as YYYY-MM-DD, or \"-\" for one year ago.", ticker))
}

func (h *Handler) runBacktest(ctx context.Context, chatID int64, ticker string, start, end time.Time) {
	h.reply(chatID, fmt.Sprintf("Running backtest for %s from %s to %s...",
		provider.NormalizeTicker(ticker), start.Format(model.DateLayout), end.Format(model.DateLayout)))

	report, err := h.analyzer.Analyze(ctx, ticker, start, end)
	if err != nil {
		h.logger.Error().Err(err).Int64("chat_id", chatID).Str("ticker", ticker).Msg("Backtest failed")
		h.sendMenu(chatID, userError(err))
		return
	}

	h.sendMenu(chatID, truncate(backtest.FormatReport(report), maxMessageLength))
}

func (h *Handler) reset(chatID int64, state *UserState) {
	state.Stage = StageInitial
	state.Ticker = ""
	h.sendMenu(chatID, "Cancelled. What would you like to do?")
}

func (h *Handler) sendMenu(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(buttonRunBacktest),
			tgbotapi.NewKeyboardButton(buttonCancel),
		),
	)
	h.send(msg)
}

func (h *Handler) reply(chatID int64, text string) {
	h.send(tgbotapi.NewMessage(chatID, text))
}

func (h *Handler) send(msg tgbotapi.MessageConfig) {
	if _, err := h.bot.Send(msg); err != nil {
		h.logger.Error().Err(err).Int64("chat_id", msg.ChatID).Msg("Failed to send message")
	}
}

func (h *Handler) today() time.Time {
	now := h.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// parseDay parses YYYY-MM-DD; "-" selects fallback.
func (h *Handler) parseDay(text string, fallback time.Time) (time.Time, error) {
	if text == "-" {
		return fallback, nil
	}
	return time.Parse(model.DateLayout, text)
}

// userError turns pipeline errors into a chat reply.
func userError(err error) string {
	switch {
	case errors.Is(err, provider.ErrInvalidRange):
		return "The start date must not be after the end date."
	case errors.Is(err, provider.ErrDataUnavailable):
		return "No price data is available for that ticker and date range."
	case errors.Is(err, model.ErrMalformedSeries):
		return "The price data for that ticker is malformed, so no backtest was run."
	default:
		return "Sorry, there was an error. Please try again later."
	}
}

func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	const marker = "\n..."
	cut := limit - len(marker)
	// Back off to a rune boundary.
	for cut > 0 && (text[cut]&0xC0) == 0x80 {
		cut--
	}
	return text[:cut] + marker
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
