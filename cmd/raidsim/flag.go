package main

import "flag"

const defaultConfigPath = "raidsim.yaml"

// CLI parameters; zero values defer to the config file
var (
	configPath     string
	level          string
	driveNum       int
	sectorNum      int
	blockSize      int
	rebuildDelayMs int
	logFile        string
	driveDir       string
	quiet          bool
)

// the parameter lists, with fullname or abbreviation
func flagInit() {
	flag.StringVar(&configPath, "c", defaultConfigPath, "the yaml configuration path")
	flag.StringVar(&configPath, "conf", defaultConfigPath, "the yaml configuration path")

	flag.StringVar(&level, "l", "", "the raid level, one of (raid0, raid1, raid5), overrides the config")
	flag.StringVar(&level, "level", "", "the raid level, one of (raid0, raid1, raid5), overrides the config")

	flag.IntVar(&driveNum, "dn", 0, "the number of drives in the array, overrides the config")
	flag.IntVar(&driveNum, "driveNum", 0, "the number of drives in the array, overrides the config")

	flag.IntVar(&sectorNum, "sn", 0, "the sectors per drive, overrides the config")
	flag.IntVar(&sectorNum, "sectorNum", 0, "the sectors per drive, overrides the config")

	flag.IntVar(&blockSize, "bs", 0, "the block size in bytes, overrides the config")
	flag.IntVar(&blockSize, "blockSize", 0, "the block size in bytes, overrides the config")

	flag.IntVar(&rebuildDelayMs, "rd", -1, "the per-sector rebuild pacing in milliseconds, overrides the config")
	flag.IntVar(&rebuildDelayMs, "rebuildDelay", -1, "the per-sector rebuild pacing in milliseconds, overrides the config")

	flag.StringVar(&logFile, "log", "", "the log file path, overrides the config")

	flag.StringVar(&driveDir, "dd", "", "the directory for rendered drive files, overrides the config")
	flag.StringVar(&driveDir, "driveDir", "", "the directory for rendered drive files, overrides the config")

	flag.BoolVar(&quiet, "q", false, "if true mute console log output")
	flag.BoolVar(&quiet, "quiet", false, "if true mute console log output")
}
