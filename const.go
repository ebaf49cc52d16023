package goleviton

// DefaultBaseURL is the vendor REST API root.
const DefaultBaseURL = "https://my.leviton.com/api"

// Endpoint paths. Formatting verbs are filled by the typed client methods.
const (
	loginPath  = "/Person/login"
	logoutPath = "/Person/logout"

	permissionsPath         = "/Person/%s/residentialPermissions"
	accountResidencesPath   = "/ResidentialAccounts/%d/residences"
	permissionResidencePath = "/ResidentialPermissions/%d/residence"

	residenceWhemsPath  = "/Residences/%d/iotWhems"
	residencePanelsPath = "/Residences/%d/residentialBreakerPanels"

	whemPath         = "/IotWhems/%s"
	whemBreakersPath = "/IotWhems/%s/residentialBreakers"
	whemCTsPath      = "/IotWhems/%s/iotCts"

	panelPath         = "/ResidentialBreakerPanels/%s"
	panelBreakersPath = "/ResidentialBreakerPanels/%s/residentialBreakers"
	breakerPath       = "/ResidentialBreakers/%s"

	// Energy history endpoints 307-redirect to an AWS API Gateway; the
	// default http.Client follows redirects, which is required here.
	energyDayPath   = "/Residences/getAllEnergyConsumptionForDay"
	energyWeekPath  = "/Residences/getAllEnergyConsumptionForWeek"
	energyMonthPath = "/Residences/getAllEnergyConsumptionForMonth"
	energyYearPath  = "/Residences/getAllEnergyConsumptionForYear"

	firmwareCheckPath = "/LcsApps/getFirmware"
)

// Token lifetime constants (seconds).
const (
	// TokenTTLDefault is the server-issued token lifetime (60 days).
	TokenTTLDefault = 5_184_000
	// TokenRefreshBuffer is how long before expiry a refresh should happen.
	TokenRefreshBuffer = 86_400
)

// Vendor status codes carrying auth flow semantics.
const (
	statusTwoFactorRequired = 406
	statusInvalidCode       = 408
)
