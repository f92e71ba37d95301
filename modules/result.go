package modules

import (
	"github.com/bwmarrin/discordgo"
)

// Result is what a plugin hands back to the dispatcher.
// It is one of Success, SyntaxError or Failure.
type Result interface {
	isResult()
}

// Success is posted as is
type Success struct {
	Content string
	Embed   *discordgo.MessageEmbed
	Files   []*discordgo.File
}

// SyntaxError means the input could not be understood, nothing was changed
type SyntaxError struct {
	Content string
}

// Failure means the command was understood but could not be carried out.
// An empty Content marks an unexpected failure, the user then only sees a
// generic text while Diagnostic is logged and reported.
type Failure struct {
	Content    string
	Diagnostic error
}

func (Success) isResult()     {}
func (SyntaxError) isResult() {}
func (Failure) isResult()     {}

// ResultName is used as metrics label
func ResultName(result Result) string {
	switch r := result.(type) {
	case Success:
		return "success"
	case SyntaxError:
		return "syntax"
	case Failure:
		if r.Content == "" {
			return "error"
		}
		return "failure"
	}
	return "unknown"
}
