package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Alturino/storefront/cart/internal/domain"
	"github.com/Alturino/storefront/cart/internal/share"
	"github.com/Alturino/storefront/internal/constants"
	"github.com/Alturino/storefront/internal/log"
)

// parseLines reads productId=quantity arguments in order.
func parseLines(args []string) ([]domain.Line, error) {
	lines := make([]domain.Line, 0, len(args))
	for _, arg := range args {
		productID, raw, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("failed parsing line=%q expected productId=quantity", arg)
		}
		quantity, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("failed parsing quantity of line=%q with error=%w", arg, err)
		}
		lines = append(lines, domain.Line{ProductID: productID, Quantity: quantity})
	}
	return lines, nil
}

func ShareCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "share",
		Short: "Encode and decode shared cart tokens",
	}

	encode := &cobra.Command{
		Use:   "encode productId=quantity...",
		Short: "Print the share token of the given lines",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := zerolog.Ctx(cmd.Context()).With().
				Str(log.KeyAppName, constants.AppShareTool).
				Str(log.KeyTag, "share encode").
				Logger()

			lines, err := parseLines(args)
			if err != nil {
				return err
			}
			token, err := share.Encode(lines)
			if err != nil {
				err = fmt.Errorf("failed encoding lines with error=%w", err)
				logger.Error().Err(err).Msg(err.Error())
				return err
			}
			logger.Debug().Int("count", len(lines)).Msg("encoded lines")
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	decode := &cobra.Command{
		Use:   "decode token",
		Short: "Print the lines carried by a share token as json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := zerolog.Ctx(cmd.Context()).With().
				Str(log.KeyAppName, constants.AppShareTool).
				Str(log.KeyTag, "share decode").
				Logger()

			lines, err := share.Decode(args[0])
			if err != nil {
				err = fmt.Errorf("failed decoding token with error=%w", err)
				logger.Error().Err(err).Msg(err.Error())
				return err
			}
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(lines)
		},
	}

	var baseURL string
	link := &cobra.Command{
		Use:   "link productId=quantity...",
		Short: "Print the absolute cart link that loads the given lines",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lines, err := parseLines(args)
			if err != nil {
				return err
			}
			url, err := share.Link(baseURL, lines)
			if err != nil {
				return fmt.Errorf("failed building link with error=%w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	}
	link.Flags().StringVar(&baseURL, "base", "http://localhost:9002", "storefront base url")

	root.AddCommand(encode, decode, link)
	return root
}
