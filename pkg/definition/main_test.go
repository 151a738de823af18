package definition

import (
	"io"
	"os"
	"testing"

	"github.com/wellmaintained/karton/internal/logging"
)

func TestMain(m *testing.M) {
	logging.SetupWithWriter(0, io.Discard, false)
	os.Exit(m.Run())
}
