package decoder

import (
	"math"

	"github.com/Carmen-Shannon/oxy-stereo/engine/stereo"
)

const (
	defaultFlatAngle    = 60.0
	defaultFisheyeAngle = 180.0
)

// fieldOfView derives the spherical extents of a single eye image from the
// requested horizontal angle. Equirectangular content keeps square pixels, so
// the vertical extent follows the eye's aspect ratio; fisheye content is
// circular and uses the same extent on both axes.
func fieldOfView(data *stereo.StereoData, opts Options) {
	angle := opts.Angle
	if angle <= 0 {
		angle = defaultFlatAngle
		if opts.Projection == stereo.ProjectionFisheye {
			angle = defaultFisheyeAngle
		}
	}
	phi := math.Min(angle*math.Pi/180, 2*math.Pi)

	theta := phi
	if opts.Projection != stereo.ProjectionFisheye {
		w, h := data.LeftEye.Width(), data.LeftEye.Height()
		if w > 0 {
			theta = phi * float64(h) / float64(w)
		}
	}
	theta = math.Min(theta, math.Pi)

	data.PhiLength = phi
	data.ThetaLength = theta
	data.ThetaStart = math.Pi/2 - theta/2
	data.Projection = opts.Projection
}
