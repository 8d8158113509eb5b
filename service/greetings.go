package service

import (
	"math/rand"
	"strings"
)

// greetingPatterns are matched against the whole lowercased message, so
// "hi" gets an instant canned reply but "hi, what is bitcoin" goes to
// the model.
var greetingPatterns = []string{
	"hi", "hello", "hey", "hi there", "hello there",
	"good morning", "good afternoon", "good evening",
	"what's up", "whats up", "sup", "yo",
}

var greetingResponses = []string{
	"Hi there! 🚀 Ready to dive into crypto? Ask me about prices, analysis, or any coin!",
	"Hello! 📈 I'm your crypto research assistant. What would you like to know about the markets today?",
	"Hey! 💎 Looking for crypto insights? I can help with trading, DeFi, NFTs, and more!",
	"Hi! ⚡ What's on your crypto watchlist today? I'm here to help with analysis and data!",
	"Hello! 🌟 Ready to explore the crypto universe? Ask me anything about blockchain and digital assets!",
	"Hey there! 🔥 The crypto markets are always moving. What can I help you research today?",
	"Hi! 🎯 Your crypto research companion is here. Ask me about any coin, trend, or strategy!",
	"Hello! ⭐ From Bitcoin to DeFi, I've got you covered. What's your crypto question?",
}

// IsGreeting reports whether the message is a bare greeting
func IsGreeting(message string) bool {
	normalized := strings.ToLower(strings.TrimSpace(message))
	for _, p := range greetingPatterns {
		if normalized == p {
			return true
		}
	}
	return false
}

// GreetingResponse picks one of the canned crypto greetings
func GreetingResponse() string {
	return greetingResponses[rand.Intn(len(greetingResponses))]
}
