// Package ytnotify implements a chat bot that watches YouTube channels for
// new uploads and posts notifications.
//
// Overview
//
// The bot polls a set of followed channels on a configurable interval. When
// a channel has a fresh upload that has not been announced before, the bot
// renders the configured message template and delivers it to the
// notification chat.
//
// The work is split across sub-packages:
//
//   - store: persistent bot state (followed channels, settings, dedup marks)
//   - youtube: upload sources backed by the Data API or channel RSS feeds
//   - notify: message templates and chat delivery
//   - poller: the check cycle and its scheduler
//   - bot: the interactive command surface
//   - config: process configuration
//
// Configuration
//
// Settings load from multiple sources:
//
//   1. Environment variables (highest priority)
//   2. Config file (ytnotify.conf.json or ~/.config/ytnotify/ytnotify.conf.json)
//   3. Default values (lowest priority)
//
// Environment variables:
//
//   - TELEGRAM_BOT_TOKEN: chat bot token (required)
//   - YOUTUBE_API_KEY: YouTube Data API key (required with the api source)
//   - YTNOTIFY_STORE_PATH: path of the persistent state file
//   - YTNOTIFY_SOURCE: upload source, "api" or "rss"
//   - YTNOTIFY_RECENCY_FACTOR: freshness window as a multiple of the interval
//   - YTNOTIFY_CALL_TIMEOUT: timeout per outbound platform call
//
// Error Handling
//
// All operations return errors that implement standard Go error handling:
//
// Checking for sentinel errors:
//
//	if errors.Is(err, ytnotify.ErrChannelNotFound) {
//		fmt.Println("Channel not found")
//	}
//
// Extracting wrapped error details:
//
//	var deliveryErr *ytnotify.DeliveryError
//	if errors.As(err, &deliveryErr) {
//		fmt.Printf("Delivery to %s failed: %v\n", deliveryErr.ChatID, deliveryErr.Err)
//	}
package ytnotify
