package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/emulab/tempo/state"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [snapshot file]",
	Short: "Print the cursor and pending sync points of a machine snapshot.",
	Args:  cobra.ExactArgs(1),
	Run:   inspectSnapshot,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func inspectSnapshot(_ *cobra.Command, args []string) {
	file, err := os.Open(args[0])
	if err != nil {
		log.Fatal(err)
	}
	defer file.Close()

	st, err := state.NewJSONCodec().Decode(file)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("machine: %s\n", st.Machine)
	fmt.Printf("cursor:  %s\n", st.Scheduler.Now)
	fmt.Printf("pending: %d sync points\n", len(st.Scheduler.Pending))

	for _, p := range st.Scheduler.Pending {
		fmt.Printf("  %-12s tag %d at %s\n", p.Owner, p.Tag, p.Time)
	}
}
