//go:build !gocv

package smartsource

import "github.com/user/videostream/pkg/ports"

var newGoCV func(logger ports.Logger, format ports.PixelFormat) ports.FrameDecoder
