package models

import "strings"

// MediaType is the kind of thing being tracked.
type MediaType string

const (
	MediaMovie     MediaType = "movie"
	MediaTV        MediaType = "tv"
	MediaAnime     MediaType = "anime"
	MediaBook      MediaType = "book"
	MediaAudiobook MediaType = "audiobook"
	MediaPodcast   MediaType = "podcast"
	MediaGame      MediaType = "game"
	MediaManga     MediaType = "manga"
)

// MediaTypes lists every valid media type in display order.
var MediaTypes = []MediaType{
	MediaMovie, MediaTV, MediaAnime, MediaBook, MediaAudiobook, MediaPodcast, MediaGame, MediaManga,
}

// ParseMediaType normalizes s and reports whether it names a media type.
func ParseMediaType(s string) (MediaType, bool) {
	t := MediaType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range MediaTypes {
		if t == known {
			return t, true
		}
	}
	return "", false
}

func (t MediaType) Valid() bool {
	_, ok := ParseMediaType(string(t))
	return ok
}

// Platform is a consumption service a title can be watched, read, played or
// listened on. The set is fixed; see AllPlatforms.
type Platform string

const (
	PlatformNetflix       Platform = "Netflix"
	PlatformAmazonPrime   Platform = "Amazon Prime"
	PlatformDisneyPlus    Platform = "Disney+"
	PlatformAppleTVPlus   Platform = "Apple TV+"
	PlatformNowTV         Platform = "NOW TV"
	PlatformBBCIPlayer    Platform = "BBC iPlayer"
	PlatformITVX          Platform = "ITVX"
	PlatformChannel4      Platform = "Channel 4"
	PlatformParamountPlus Platform = "Paramount+"
	PlatformYouTube       Platform = "YouTube"
	PlatformCrunchyroll   Platform = "Crunchyroll"
	PlatformHidive        Platform = "Hidive"
	PlatformApplePodcasts Platform = "Apple Podcasts"
	PlatformSteam         Platform = "Steam"
	PlatformPlayStation   Platform = "PlayStation Store"
	PlatformXbox          Platform = "Xbox"
	PlatformNintendo      Platform = "Nintendo"
	PlatformEpicGames     Platform = "Epic Games"
	PlatformGOG           Platform = "GOG"
	PlatformAudible       Platform = "Audible"
	PlatformKindle        Platform = "Kindle"
	PlatformComiXology    Platform = "ComiXology"
	PlatformMangaPlus     Platform = "Manga Plus"
	PlatformVIZ           Platform = "VIZ"
)

var AllPlatforms = []Platform{
	PlatformNetflix, PlatformAmazonPrime, PlatformDisneyPlus, PlatformAppleTVPlus,
	PlatformNowTV, PlatformBBCIPlayer, PlatformITVX, PlatformChannel4,
	PlatformParamountPlus, PlatformYouTube, PlatformCrunchyroll, PlatformHidive,
	PlatformApplePodcasts, PlatformSteam, PlatformPlayStation, PlatformXbox,
	PlatformNintendo, PlatformEpicGames, PlatformGOG, PlatformAudible,
	PlatformKindle, PlatformComiXology, PlatformMangaPlus, PlatformVIZ,
}

func (p Platform) Valid() bool {
	for _, known := range AllPlatforms {
		if p == known {
			return true
		}
	}
	return false
}

// PlatformConfidence tells consumers how a platform value was obtained.
type PlatformConfidence string

const (
	// ConfidenceConfirmed: the catalog reported availability and the resolver mapped it.
	ConfidenceConfirmed PlatformConfidence = "confirmed"
	// ConfidenceInferred: a heuristic guessed the platform (e.g. manga publisher rules).
	ConfidenceInferred PlatformConfidence = "inferred"
	// ConfidenceDefault: the adapter's fixed fallback for its catalog.
	ConfidenceDefault PlatformConfidence = "default"
)
