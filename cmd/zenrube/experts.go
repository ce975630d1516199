package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vmanoilov/zenrube"
)

var expertsCmd = &cobra.Command{
	Use:   "experts",
	Short: "List the registered expert personas",
	RunE: func(cmd *cobra.Command, args []string) error {
		z, err := zenrube.New()
		if err != nil {
			return err
		}
		bold := color.New(color.Bold)
		for _, slug := range z.Experts().Slugs() {
			def, err := z.Experts().Get(slug)
			if err != nil {
				return err
			}
			bold.Printf("%s", slug)
			fmt.Printf("  %s\n", def.Name)
			if def.Description != "" {
				fmt.Printf("  %s\n", def.Description)
			}
		}
		return nil
	},
}
