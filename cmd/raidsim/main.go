package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/profile"

	"github.com/raidfs/raidsim"
)

// an instant error dealer
var failOnErr = func(op string, e error) {
	if e != nil {
		log.Fatalf("%s: %s", op, e.Error())
	}
}

// if you want to enable memory profile functionality set profileEnable as
// true, otherwise false
const profileEnable = false

func main() {
	godotenv.Load()
	flagInit()
	flag.Parse()
	if profileEnable {
		defer profile.Start(profile.MemProfile, profile.MemProfileRate(1)).Stop()
	}
	if env := os.Getenv("RAIDSIM_CONFIG"); env != "" && configPath == defaultConfigPath {
		configPath = env
	}
	opt, err := raidsim.LoadOptions(configPath)
	failOnErr("init", err)
	applyOverrides(opt)

	arr, err := raidsim.NewArray(opt)
	failOnErr("init", err)
	go runLogSink(arr.Events(), opt.LogFile, opt.Quiet)

	failOnErr("init", os.MkdirAll(opt.DriveDir, 0755))
	refreshDriveFiles(arr, opt.DriveDir)

	menuLoop(arr, opt)
}

// applyOverrides layers environment and explicit flags over the config.
func applyOverrides(opt *raidsim.Options) {
	if env := os.Getenv("RAIDSIM_LOG"); env != "" {
		opt.LogFile = env
	}
	if env := os.Getenv("RAIDSIM_QUIET"); env == "1" || env == "true" {
		opt.Quiet = true
	}
	if level != "" {
		opt.Level = level
	}
	if driveNum > 0 {
		opt.DriveCount = driveNum
	}
	if sectorNum > 0 {
		opt.SectorCount = sectorNum
	}
	if blockSize > 0 {
		opt.BlockSize = blockSize
	}
	if rebuildDelayMs >= 0 {
		opt.RebuildDelayMs = rebuildDelayMs
	}
	if logFile != "" {
		opt.LogFile = logFile
	}
	if driveDir != "" {
		opt.DriveDir = driveDir
	}
	if quiet {
		opt.Quiet = true
	}
}

// runLogSink is the log-delivery worker: it drains the core's event channel
// and fans every event out to the console and the append-only log file. The
// core never blocks on it.
func runLogSink(events <-chan raidsim.Event, logFile string, quiet bool) {
	var f *os.File
	if logFile != "" {
		var err error
		f, err = os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
		if err != nil {
			log.Printf("log sink: %s", err)
		}
	}
	for ev := range events {
		line := fmt.Sprintf("[%s] %s: %s",
			ev.Time.Format("2006-01-02 15:04:05"), ev.Severity, ev.Message)
		if !quiet {
			fmt.Println(line)
		}
		if f != nil {
			if _, err := f.WriteString(line + "\n"); err == nil {
				f.Sync()
			}
		}
	}
}

func printHelp() {
	fmt.Println(`commands:
  write <text>   write text onto the array
  edit <text>    rewrite at the previous write's offset
  read           read the full array contents back
  status         array and drive health summary
  view <id>      show one drive's sector table
  add            attach a new drive (replacement or hot spare)
  remove <id>    detach a drive
  fail [ids]     fail drives: a comma separated id list, or one random drive
  rebuild        rebuild the failed drive onto a spare
  scrub          audit parity/mirror consistency
  help           this text
  quit           exit`)
}

func menuLoop(arr *raidsim.Array, opt *raidsim.Options) {
	printHelp()
	sc := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("raidsim> ")
		if !sc.Scan() {
			return
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		cmd, rest, _ := strings.Cut(line, " ")
		rest = strings.TrimSpace(rest)
		switch cmd {
		case "write":
			report(arr.Write([]byte(rest)))
		case "edit":
			report(arr.Edit([]byte(rest)))
		case "read":
			data, err := arr.Read()
			if err != nil {
				report(err)
				break
			}
			fmt.Printf("%q\n", data)
		case "status":
			printStatus(arr.Status(), arr.RebuildProgress())
		case "view":
			id, err := strconv.Atoi(rest)
			if err != nil {
				report(err)
				break
			}
			snap, err := arr.DriveView(id)
			if err != nil {
				report(err)
				break
			}
			fmt.Print(renderDrive(snap))
		case "add":
			id, err := arr.AddDrive()
			if err != nil {
				report(err)
				break
			}
			fmt.Printf("drive %d attached\n", id)
		case "remove":
			id, err := strconv.Atoi(rest)
			if err != nil {
				report(err)
				break
			}
			report(arr.RemoveDrive(id))
		case "fail":
			simOpt := &raidsim.SimOptions{FailNum: 1}
			if rest != "" {
				simOpt = &raidsim.SimOptions{FailDrive: rest}
			}
			report(arr.SimulateFailure(simOpt))
		case "rebuild":
			job, err := arr.StartRebuild()
			if err != nil {
				report(err)
				break
			}
			fmt.Printf("rebuild %s started\n", job.ID)
		case "scrub":
			rep, err := arr.Scrub()
			if err != nil {
				report(err)
				break
			}
			fmt.Printf("%d stripes checked, %d mismatched\n", rep.Stripes, len(rep.Mismatched))
		case "help":
			printHelp()
		case "quit", "exit":
			return
		default:
			fmt.Printf("unknown command %q, try help\n", cmd)
		}
		refreshDriveFiles(arr, opt.DriveDir)
	}
}

func report(err error) {
	if err != nil {
		fmt.Println("error:", err)
	}
}
