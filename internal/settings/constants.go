package settings

// Loyalty tunables shared by the visit recorder and the referral allocator.
const (
	// SiteNameKey is the DB config key for the site name.
	SiteNameKey = "SITE_NAME"
	// DefaultSiteName is the fallback site name used in outgoing mail.
	DefaultSiteName = "BrewLoyal"

	// PointsPerCurrencyUnit divides the spend amount to get earned points.
	PointsPerCurrencyUnit = 10
	// XPPerPoint multiplies earned points to get earned XP.
	XPPerPoint = 2
	// AdminCreditMultiplier scales admin-approved credits for flagged users.
	AdminCreditMultiplier = 1.5

	// RegistrationXPBonus is granted to every user at verification.
	RegistrationXPBonus = 100
	// RefereeXPBonus is the extra XP for a referred user at verification.
	RefereeXPBonus = 150
	// ReferrerXPBonus is granted to the referrer when a referee verifies.
	ReferrerXPBonus = 200
)
