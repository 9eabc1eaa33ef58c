package source

// Source identifiers
const (
	Bing               = "bing"
	Unsplash           = "unsplash"
	NASA               = "nasa"
	APOD               = "apod"
	EarthObservatory   = "earthobservatory"
	EPOD               = "epod"
	NationalGeographic = "national-geographic"
	WallhavenID        = "wallhaven"

	// Random asks for any source that needs no credentials.
	Random = "random"
)

// Endpoints
const (
	BingURL               = "https://www.bing.com/HPImageArchive.aspx?idx=0&n=1"
	UnsplashURL           = "https://unsplash.com/t/wallpapers"
	NASAURL               = "https://www.nasa.gov/rss/dyn/lg_image_of_the_day.rss"
	APODURL               = "https://apod.nasa.gov/apod/astropix.html"
	EarthObservatoryURL   = "https://earthobservatory.nasa.gov/feeds/earth-observatory.rss"
	EPODURL               = "https://epod.usra.edu/"
	NationalGeographicURL = "https://www.natgeotv.com/me/photo-of-the-day"
	WallhavenSearchURL    = "https://wallhaven.cc/api/v1/search"

	bingDownloadPrefix = "https://www.bing.com"
	bingQualitySuffix  = "_UHD.jpg"
	apodDownloadPrefix = "https://apod.nasa.gov/apod/"

	mediaRSSNamespace = "http://search.yahoo.com/mrss/"
)

// Wallhaven query defaults
const (
	WallhavenSorting    = "toplist"
	WallhavenPage       = 1
	DefaultWallhavenTop = 10
)
