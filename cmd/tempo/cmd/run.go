package cmd

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/emulab/tempo/devices/cassette"
	"github.com/emulab/tempo/devices/tonegen"
	"github.com/emulab/tempo/devices/vdp"
	"github.com/emulab/tempo/machine"
	"github.com/emulab/tempo/monitoring"
	"github.com/emulab/tempo/timing"
	"github.com/emulab/tempo/tracing"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a demo machine for a number of frames.",
	Run:   runMachine,
}

func init() {
	runCmd.Flags().Int("frames", 600, "number of video frames to emulate")
	runCmd.Flags().String("trace-csv", "", "write a fire trace to this CSV file")
	runCmd.Flags().String("trace-db", "", "write a fire trace to this SQLite database")
	runCmd.Flags().String("snapshot", "", "save a machine snapshot to this file at the end")
	runCmd.Flags().Bool("monitor", false, "serve machine state over HTTP while running")
	runCmd.Flags().Int("monitor-port", 0, "monitor port (default TEMPO_MONITOR_PORT or random)")
	runCmd.Flags().Bool("open-browser", false, "open the monitor URL in a browser")

	rootCmd.AddCommand(runCmd)
}

func runMachine(cmd *cobra.Command, _ []string) {
	mach := buildDemoMachine()

	setupTracing(cmd, mach)
	setupMonitoring(cmd, mach)

	display, _ := mach.SchedulableByName("vdp")
	frameDuration := display.(*vdp.VDP).FrameDuration()

	frames, _ := cmd.Flags().GetInt("frames")
	for i := 0; i < frames; i++ {
		target := timing.Zero.Add(frameDuration * timing.Duration(i+1))
		mach.AdvanceTo(target)
	}

	fmt.Printf("emulated %d frames, cursor at %s\n",
		frames, mach.Scheduler().Now())

	saveSnapshot(cmd, mach)

	mach.Delete()
	atexit.Exit(0)
}

func buildDemoMachine() *machine.Machine {
	mach := machine.New("demo")
	sched := mach.Scheduler()

	psg := tonegen.New("psg", sched)

	display := vdp.New("vdp", sched, func(t timing.VirtualTime) {
		// Re-trigger the envelope on every frame interrupt.
		psg.KeyOn(t)
	})

	deck := cassette.New("cassette", sched)

	mach.RegisterDevice(display)
	mach.RegisterDevice(psg)
	mach.RegisterDevice(deck)

	display.PowerOn(timing.Zero)
	deck.InsertTape(
		timing.Duration(10*timing.TicksPerSecond), timing.Zero)
	deck.SetMotor(true, timing.Zero)

	return mach
}

func setupTracing(cmd *cobra.Command, mach *machine.Machine) {
	csvPath, _ := cmd.Flags().GetString("trace-csv")
	if csvPath != "" {
		writer := tracing.NewCSVTraceWriter(csvPath)
		writer.Init()
		tracing.CollectFires(mach.Scheduler(), mach.Name(), writer)
	}

	dbPath, _ := cmd.Flags().GetString("trace-db")
	if dbPath != "" {
		writer := tracing.NewSQLiteTraceWriter(dbPath)
		writer.Init()
		tracing.CollectFires(mach.Scheduler(), mach.Name(), writer)
	}
}

func setupMonitoring(cmd *cobra.Command, mach *machine.Machine) {
	enabled, _ := cmd.Flags().GetBool("monitor")
	if !enabled {
		return
	}

	port, _ := cmd.Flags().GetInt("monitor-port")
	if port == 0 {
		port, _ = strconv.Atoi(os.Getenv("TEMPO_MONITOR_PORT"))
	}

	monitor := monitoring.NewMonitor().WithPortNumber(port)

	openBrowser, _ := cmd.Flags().GetBool("open-browser")
	if openBrowser {
		monitor = monitor.WithBrowser()
	}

	monitor.RegisterMachine(mach)
	monitor.StartServer()
}

func saveSnapshot(cmd *cobra.Command, mach *machine.Machine) {
	path, _ := cmd.Flags().GetString("snapshot")
	if path == "" {
		return
	}

	file, err := os.Create(path)
	if err != nil {
		log.Fatal(err)
	}
	defer file.Close()

	err = mach.Save(file)
	if err != nil {
		log.Fatal(err)
	}
}
