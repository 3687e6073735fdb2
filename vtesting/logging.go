package vtesting

import (
	"regexp"
	"strings"

	"github.com/alecthomas/assert"
	"www.velocidex.com/golang/semwatch/logging"
)

// Fails the test unless a line in the memory logs matches regex.
func MemoryLogsContain(t assert.TestingT, regex string, msgAndArgs ...interface{}) {
	if !MemoryLogsContainRegex(regex) {
		t.Errorf("No memory log line matches %q %v. Logs:\n%v", regex,
			msgAndArgs, strings.Join(logging.GetMemoryLogs(), "\n"))
	}
}

func MemoryLogsContainRegex(regex string) bool {
	re := regexp.MustCompile(regex)
	for _, line := range logging.GetMemoryLogs() {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}
