package main

import (
	"fmt"
	"strings"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow, color.Bold)
	red    = color.New(color.FgRed, color.Bold)
	faint  = color.New(color.Faint)
)

// header prints a section title
func header(text string) {
	line := strings.Repeat("=", 60)
	green.Printf("\n%s\n%s\n%s\n", line, text, line)
}

func severityColor(s domain.Severity) *color.Color {
	switch s {
	case domain.SeverityHigh:
		return red
	case domain.SeverityMedium:
		return yellow
	default:
		return green
	}
}

func printInsight(i int, in domain.Insight) {
	c := severityColor(in.Severity)
	c.Printf("\n%d. [%s] ", i+1, strings.ToUpper(string(in.Severity)))
	fmt.Println(in.Title)
	fmt.Printf("   %s\n", in.Detail)
	if len(in.Actions) > 0 {
		labels := make([]string, len(in.Actions))
		for j, a := range in.Actions {
			labels[j] = a.Label
		}
		faint.Printf("   Ações: %s\n", strings.Join(labels, " | "))
	}
}

func printProjection(p domain.Projection) {
	balance := green
	if p.ProjectedBalance.IsNegative() {
		balance = red
	}
	fmt.Print("Saldo previsto:        ")
	balance.Printf("R$ %s\n", p.ProjectedBalance.StringFixed(2))
	fmt.Printf("Renda comprometida:    %s%%\n", p.PercentCommitted.StringFixed(2))
	fmt.Printf("Sugestão para a meta:  R$ %s\n", p.SuggestedSavings.StringFixed(2))
}

func printError(text string) {
	red.Printf("Error: %s\n", text)
}
