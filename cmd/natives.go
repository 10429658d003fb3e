package cmd

import (
	"bytes"
	"fmt"
	"math/rand"
	"sort"

	"github.com/spf13/cobra"

	"github.com/loojk2008/ferrugo/heap"
	"github.com/loojk2008/ferrugo/trampoline"
)

var nativesCmd = &cobra.Command{
	Use:   "natives",
	Short: "List the closed native trampoline catalog",
	RunE:  runNatives,
}

func runNatives(cmd *cobra.Command, args []string) error {
	world := heap.Bootstrap()
	table := trampoline.NewTable(trampoline.Deps{
		ObjectHeap: world.ObjectHeap,
		Out:        &bytes.Buffer{},
		Rand:       rand.New(rand.NewSource(1)),
	})

	names := table.Names()
	sort.Strings(names)
	for _, name := range names {
		sig, _ := table.Signature(name)
		fmt.Fprintf(cmd.OutOrStdout(), "%-55s %s(%s)\n", name, sig.Ret, paramsString(sig.Params))
	}
	return nil
}

func paramsString(params []trampoline.Code) string {
	out := ""
	for i, p := range params {
		if i > 0 {
			out += ", "
		}
		out += p.String()
	}
	return out
}
