package twitch

import (
	"strings"

	"github.com/mmcdole/favlive/internal/domain"
)

// Logos are served at 300x300; the CDN also serves the smaller renditions
// under the same path with the dimensions swapped.
const logoFullSize = "300x300"

var logoSizes = map[domain.LogoSize]string{
	domain.LogoSmall:  "70x70",
	domain.LogoMedium: "150x150",
	domain.LogoLarge:  logoFullSize,
}

func mapLogos(logo string) map[domain.LogoSize]string {
	if logo == "" {
		return nil
	}
	logos := make(map[domain.LogoSize]string, len(logoSizes))
	for size, dims := range logoSizes {
		logos[size] = strings.Replace(logo, logoFullSize, dims, 1)
	}
	return logos
}

func mapChannel(dto *ChannelDTO) domain.Channel {
	return domain.Channel{
		ID:     string(dto.ID),
		Name:   dto.Name,
		Title:  dto.DisplayName,
		Logos:  mapLogos(dto.Logo),
		Status: domain.StatusUnknown,
	}
}

func mapStatus(resp *StreamResponse) domain.Status {
	if resp.Stream != nil {
		return domain.StatusOnline
	}
	return domain.StatusOffline
}
