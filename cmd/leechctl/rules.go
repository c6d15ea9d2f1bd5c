package main

import (
	"fmt"
	"strconv"

	"github.com/leechtools/leechctl/internal/cli"
	"github.com/leechtools/leechctl/internal/common"
	"github.com/leechtools/leechctl/internal/model"

	"github.com/spf13/cobra"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage the ordered leech rule list",
		Long: `Rules are evaluated top to bottom; the first rule whose deck and
note-type patterns both match a card decides what happens to it.
Positions shown by 'rules list' are what 'remove' and 'move' address.`,
	}

	cmd.AddCommand(rulesListCmd())
	cmd.AddCommand(rulesAddCmd())
	cmd.AddCommand(rulesRemoveCmd())
	cmd.AddCommand(rulesMoveCmd())

	return cmd
}

func rulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show rules in evaluation order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, cfg, err := loadSettings(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Print(cli.FormatRuleTable(cfg.Rules))
			return nil
		},
	}
}

func rulesAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Append a rule to the list",
		RunE:  runRulesAdd,
	}

	cmd.Flags().String("deck", "*", "deck name glob pattern")
	cmd.Flags().String("note-type", "*", "note type glob pattern")
	cmd.Flags().String("action", "", "action: reset, delay, delete, reset_lapses, remove_tag")
	cmd.Flags().Int("delay", model.DefaultDelayDays, "days to postpone (delay action only)")
	_ = cmd.MarkFlagRequired("action")

	return cmd
}

func runRulesAdd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	deck, _ := cmd.Flags().GetString("deck")
	noteType, _ := cmd.Flags().GetString("note-type")
	actionRaw, _ := cmd.Flags().GetString("action")
	delay, _ := cmd.Flags().GetInt("delay")

	action := model.Action(actionRaw)
	if !action.Valid() {
		return common.NewUserError(fmt.Sprintf("unknown action %q (expected reset, delay, delete, reset_lapses, or remove_tag)", actionRaw), nil)
	}

	rule := model.Rule{Deck: deck, NoteType: noteType, Action: action}
	if action == model.ActionDelay {
		if delay < 1 {
			delay = 1
		}
		rule.DelayDays = &delay
	}

	store, cfg, err := loadSettings(ctx)
	if err != nil {
		return err
	}

	cfg.Rules = append(cfg.Rules, rule)
	if err := store.Save(ctx, cfg); err != nil {
		return err
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Added rule %d: %s", len(cfg.Rules), action.Label())))
	return nil
}

func rulesRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <position>",
		Short: "Remove the rule at the given position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, cfg, err := loadSettings(ctx)
			if err != nil {
				return err
			}

			pos, err := rulePosition(args[0], len(cfg.Rules))
			if err != nil {
				return err
			}

			removed := cfg.Rules[pos]
			cfg.Rules = append(cfg.Rules[:pos], cfg.Rules[pos+1:]...)
			if err := store.Save(ctx, cfg); err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Removed rule %s: %s", args[0], removed.Action.Label())))
			return nil
		},
	}
}

func rulesMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <from> <to>",
		Short: "Move a rule to a new position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, cfg, err := loadSettings(ctx)
			if err != nil {
				return err
			}

			from, err := rulePosition(args[0], len(cfg.Rules))
			if err != nil {
				return err
			}
			to, err := rulePosition(args[1], len(cfg.Rules))
			if err != nil {
				return err
			}

			cfg.Rules = moveRule(cfg.Rules, from, to)

			if err := store.Save(ctx, cfg); err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Moved rule %s to position %s", args[0], args[1])))
			return nil
		},
	}
}

// moveRule reorders the list so the rule at from lands at to, shifting
// everything between them.
func moveRule(rules []model.Rule, from, to int) []model.Rule {
	out := make([]model.Rule, 0, len(rules))
	out = append(out, rules[:from]...)
	out = append(out, rules[from+1:]...)

	moved := rules[from]
	out = append(out[:to], append([]model.Rule{moved}, out[to:]...)...)
	return out
}

// rulePosition parses a 1-based position argument and bounds-checks it.
func rulePosition(arg string, count int) (int, error) {
	pos, err := strconv.Atoi(arg)
	if err != nil || pos < 1 || pos > count {
		return 0, common.NewUserError(fmt.Sprintf("invalid rule position %q (have %d rules)", arg, count), nil)
	}
	return pos - 1, nil
}
