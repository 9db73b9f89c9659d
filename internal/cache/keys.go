package cache

import "fmt"

const KeySchedulePattern = "schedule:*"

func KeyTripsPerHour(line, class string) string {
	return fmt.Sprintf("schedule:trips:%s:%s", line, class)
}

func KeyHeadways(line, class string) string {
	return fmt.Sprintf("schedule:headways:%s:%s", line, class)
}

func KeyRuns(line string) string {
	if line == "" {
		line = "all"
	}
	return fmt.Sprintf("schedule:runs:%s", line)
}
