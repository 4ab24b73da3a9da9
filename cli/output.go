package cli

/*
 * Licensed under LGPL-3.0.
 *
 * You can get a copy of the LGPL-3.0 License at
 *
 * https://www.gnu.org/licenses/lgpl-3.0.en.html
 *
 * @wcgcyx - https://github.com/wcgcyx
 */

import (
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/wcgcyx/rubidity/contract"
	"github.com/wcgcyx/rubidity/processor"
)

// status colours the status of an outcome.
func status(s string) string {
	switch s {
	case processor.StatusSuccess:
		return color.GreenString(s)
	case processor.StatusFailure:
		return color.RedString(s)
	}
	return color.YellowString(s)
}

// short abbreviates a hex string.
func short(s string) string {
	if len(s) <= 14 {
		return s
	}
	return s[:8] + ".." + s[len(s)-4:]
}

// result gets the printable result of an outcome.
func result(o *processor.Outcome) string {
	if o.Error != "" {
		return strings.SplitN(o.Error, "\n", 2)[0]
	}
	if o.ContractAddress != (common.Address{}) {
		return "created " + strings.ToLower(o.ContractAddress.Hex())
	}
	if o.ReturnValue != nil {
		return fmt.Sprintf("%v", o.ReturnValue)
	}
	return ""
}

// printResult prints the outcomes of a block.
func printResult(w io.Writer, res *processor.Result) {
	fmt.Fprintf(w, "Block %v (%v)\n", res.Number, res.Hash.Hex())
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Transaction", "Status", "Gas", "Calls", "Logs", "Result"})
	table.SetAutoWrapText(false)
	for _, o := range res.Outcomes {
		table.Append([]string{
			fmt.Sprintf("%v", o.Index),
			short(o.TransactionHash.Hex()),
			status(o.Status),
			o.GasUsed.String(),
			fmt.Sprintf("%v", len(o.Calls)),
			fmt.Sprintf("%v", len(o.Logs)),
			result(o),
		})
	}
	table.Render()
	fmt.Fprintf(w, "%v contracts updated, %v artifacts added\n", len(res.Records.Contracts), len(res.Records.Artifacts))
}

// printClasses prints classes with their init code hashes.
func printClasses(w io.Writer, classes []*contract.Class) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Class", "Init Code Hash", "Abstract", "Linearization"})
	table.SetAutoWrapText(false)
	for _, class := range classes {
		table.Append([]string{
			class.Name(),
			class.InitCodeHash().Hex(),
			fmt.Sprintf("%v", class.IsAbstract()),
			strings.Join(class.Linearization(), " > "),
		})
	}
	table.Render()
}
