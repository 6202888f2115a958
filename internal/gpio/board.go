package gpio

import (
	"os"
	"strings"
)

const deviceTreeModelPath = "/proc/device-tree/model"

// Board reads the device tree model to identify the board.
func Board() string {
	return readModel(deviceTreeModelPath)
}

// IsRaspberryPi reports whether the board model names a Raspberry Pi.
func IsRaspberryPi(model string) bool {
	return strings.Contains(model, "Raspberry Pi")
}

func readModel(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return "unknown"
	}

	// Device tree model contains null bytes, trim them
	return strings.TrimRight(string(data), "\x00")
}
