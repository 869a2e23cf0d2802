//go:build gocv

package smartsource

import (
	"github.com/user/videostream/pkg/adapters/gocvsource"
	"github.com/user/videostream/pkg/ports"
)

var newGoCV = func(logger ports.Logger, format ports.PixelFormat) ports.FrameDecoder {
	return gocvsource.New(logger, format)
}
