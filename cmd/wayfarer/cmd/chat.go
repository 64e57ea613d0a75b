package cmd

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/wayfarer/wayfarer/chatbot"
)

func newChatCmd() *cobra.Command {
	var showRule bool
	cmd := &cobra.Command{
		Use:   "chat [message...]",
		Short: "Ask the travel assistant",
		Long: `Reply to a single message given as arguments, or to each line read
from standard input when no arguments are given.`,
		Example: `  wayfarer chat what is the weather like in spring
  printf 'hello\nvisa?\n' | wayfarer chat`,
		RunE: func(cmd *cobra.Command, args []string) error {
			bot := chatbot.New()
			out := cmd.OutOrStdout()
			if len(args) > 0 {
				writeReply(out, bot, strings.Join(args, " "), showRule)
				return nil
			}
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				writeReply(out, bot, line, showRule)
			}
			return scanner.Err()
		},
	}
	cmd.Flags().BoolVar(&showRule, "show-rule", false, "Prefix each reply with the rule that produced it")
	cmd.AddCommand(newChatRulesCmd())
	return cmd
}

func writeReply(w io.Writer, bot *chatbot.Responder, message string, showRule bool) {
	reply := chatbot.Fallback
	name := "fallback"
	if rule, ok := bot.Match(message); ok {
		reply, name = rule.Response, rule.Name
	}
	if showRule {
		fmt.Fprintf(w, "[%s] %s\n", name, reply)
		return
	}
	fmt.Fprintln(w, reply)
}

func newChatRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the built-in rules in priority order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			st := newStyles(w)
			shadowed := chatbot.New().Shadowed()

			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "RULE\tKEYWORDS")
			for _, r := range chatbot.DefaultRules {
				name := r.Name
				if slices.Contains(shadowed, r.Name) {
					name += " (unreachable)"
				}
				fmt.Fprintf(tw, "%s\t%s\n", name, strings.Join(r.Keywords, ", "))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if len(shadowed) > 0 {
				fmt.Fprintln(w, st.warn.Render(fmt.Sprintf(
					"%d rule(s) are hidden by earlier keywords: %s", len(shadowed), strings.Join(shadowed, ", "))))
			}
			return nil
		},
	}
}
