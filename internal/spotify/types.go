package spotify

// Image is a piece of cover art referenced by the API.
type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// playerResponse is the subset of the player endpoint payload the
// projection needs. Everything else is dropped.
type playerResponse struct {
	IsPlaying            bool        `json:"is_playing"`
	CurrentlyPlayingType string      `json:"currently_playing_type"`
	Item                 *playerItem `json:"item"`
}

// playerItem covers both tracks and episodes; which fields are set
// depends on currently_playing_type.
type playerItem struct {
	Name         string `json:"name"`
	Popularity   int    `json:"popularity"`
	ExternalURLs struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Album struct {
		Images []Image `json:"images"`
	} `json:"album"`
	Images []Image `json:"images"`
	Show   struct {
		Name string `json:"name"`
	} `json:"show"`
}

// NowPlaying is the snapshot served to callers. Type selects which of
// the optional fields are populated: tracks carry artists and
// popularity, episodes carry the show name.
type NowPlaying struct {
	URL        string   `json:"spotify_url,omitempty"`
	Name       string   `json:"name,omitempty"`
	IsPlaying  bool     `json:"is_playing"`
	Type       string   `json:"type,omitempty"`
	Image      *Image   `json:"image,omitempty"`
	Artists    []string `json:"artists,omitempty"`
	Show       string   `json:"show,omitempty"`
	Popularity *int     `json:"popularity,omitempty"`
}
