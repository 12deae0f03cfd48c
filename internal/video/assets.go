package video

import (
	"errors"
	"math/rand/v2"
	"path/filepath"

	"breathein/internal/fileutil"
)

// ErrNoAssets is returned when no background image is available.
var ErrNoAssets = errors.New("no background images found")

var (
	backgroundExts = []string{".jpg", ".jpeg", ".png", ".bmp"}
	musicExts      = []string{".mp3"}
)

// Icon file names looked up in the icons directory.
const (
	TorchIcon  = "torch.png"
	CameraIcon = "camera.png"
	LogoIcon   = "logo.png"
)

// Icons holds the optional overlay images. Empty fields are skipped.
type Icons struct {
	Torch  string
	Camera string
	Logo   string
}

// Assets is one random draw of inputs for a render.
type Assets struct {
	Background string
	Music      string
	Icons      Icons
}

// SelectAssets draws a random background and, when any exist, a random
// music clip. Missing icons are left empty.
func SelectAssets(backgroundDir, musicDir, iconsDir string, rng *rand.Rand) (Assets, error) {
	backgrounds, err := fileutil.ListByExt(backgroundDir, backgroundExts...)
	if err != nil {
		return Assets{}, err
	}
	if len(backgrounds) == 0 {
		return Assets{}, ErrNoAssets
	}
	tracks, err := fileutil.ListByExt(musicDir, musicExts...)
	if err != nil {
		return Assets{}, err
	}

	assets := Assets{Background: backgrounds[rng.IntN(len(backgrounds))]}
	if len(tracks) > 0 {
		assets.Music = tracks[rng.IntN(len(tracks))]
	}
	assets.Icons = Icons{
		Torch:  optionalFile(iconsDir, TorchIcon),
		Camera: optionalFile(iconsDir, CameraIcon),
		Logo:   optionalFile(iconsDir, LogoIcon),
	}
	return assets, nil
}

func optionalFile(dir, name string) string {
	if dir == "" {
		return ""
	}
	path := filepath.Join(dir, name)
	if fileutil.Exists(path) {
		return path
	}
	return ""
}
