package engine

import (
	"strings"

	"golang.org/x/net/html"
)

// challengeTitles are lowercase title fragments of common anti-bot
// interstitials.
var challengeTitles = []string{
	"just a moment",
	"please wait",
	"attention required",
	"checking your browser",
	"access denied",
	"잠시만 기다",
}

// challengeMarkers appear in the body of challenge pages whose title is
// not distinctive.
var challengeMarkers = []string{
	"cf-browser-verification",
	"cf_chl_opt",
}

// IsChallengeTitle reports whether title belongs to a bot-challenge page.
func IsChallengeTitle(title string) bool {
	t := strings.ToLower(strings.TrimSpace(title))
	if t == "" {
		return false
	}
	for _, p := range challengeTitles {
		if strings.Contains(t, p) {
			return true
		}
	}
	return false
}

// IsChallengePage reports whether a fetched document is a bot challenge
// rather than real content.
func IsChallengePage(title, body string) bool {
	if IsChallengeTitle(title) {
		return true
	}
	for _, m := range challengeMarkers {
		if strings.Contains(body, m) {
			return true
		}
	}
	return false
}

// extractTitle uses the Go HTML tokenizer to find the first <title> element.
func extractTitle(htmlStr string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(htmlStr))
	inTitle := false
	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			tn, _ := tokenizer.TagName()
			if string(tn) == "title" {
				inTitle = true
			}
		case html.TextToken:
			if inTitle {
				return strings.TrimSpace(string(tokenizer.Text()))
			}
		case html.EndTagToken:
			if inTitle {
				return ""
			}
		}
	}
}
