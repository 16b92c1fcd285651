package cli

import (
	"errors"
	"fmt"
	"io"

	"clash-rulesync/internal/dto"
	"clash-rulesync/internal/pkg/apperr"

	"github.com/fatih/color"
)

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	errColor  = color.New(color.FgRed)
	dimColor  = color.New(color.Faint)
)

func printOK(w io.Writer, format string, args ...interface{}) {
	okColor.Fprint(w, "✓ ")
	fmt.Fprintf(w, format+"\n", args...)
}

func printWarn(w io.Writer, format string, args ...interface{}) {
	warnColor.Fprint(w, "! ")
	fmt.Fprintf(w, format+"\n", args...)
}

func printError(w io.Writer, err error) {
	errColor.Fprint(w, "✗ ")
	fmt.Fprintln(w, userMessage(err))
}

// userMessage is the text an operator sees for an error.
func userMessage(err error) string {
	var authErr *apperr.AuthError
	switch {
	case errors.Is(err, apperr.ErrRuleExists):
		return "rule already exists"
	case errors.Is(err, apperr.ErrRuleNotFound):
		return "rule not found"
	case errors.As(err, &authErr):
		return "router login failed: " + authErr.Message
	}
	return err.Error()
}

// printRefresh reports one line per target and provider. Failures are
// warnings; the change itself already succeeded.
func printRefresh(w io.Writer, outcomes []dto.RefreshOutcome) {
	if len(outcomes) == 0 {
		dimColor.Fprintln(w, "  no refresh targets configured")
		return
	}
	for _, o := range outcomes {
		if o.OK() {
			okColor.Fprint(w, "  ↻ ")
			fmt.Fprintf(w, "%s: %s\n", o.Target, o.Provider)
			continue
		}
		warnColor.Fprint(w, "  ! ")
		fmt.Fprintf(w, "%s: %s: %s\n", o.Target, o.Provider, o.Error)
	}
}
