package catalog

import "fmt"

// Bundle holds the provider parameters and wholesale cost for one
// customer-facing bundle id.
type Bundle struct {
	Network    string  `json:"network"`
	OfferSlug  string  `json:"offerSlug"`
	VolumeGB   int     `json:"volumeGB"`
	BundleType string  `json:"bundleType"`
	CostPrice  float64 `json:"costPrice"`
}

// Size returns the customer-facing volume label, e.g. "5GB".
func (b Bundle) Size() string {
	return fmt.Sprintf("%dGB", b.VolumeGB)
}

// Catalog maps bundle ids to provider parameters. It is loaded once at
// startup and treated as read-only afterwards.
type Catalog map[string]Bundle

func (c Catalog) Lookup(bundleID string) (Bundle, bool) {
	bundle, ok := c[bundleID]
	return bundle, ok
}

// Default returns the static price table.
func Default() Catalog {
	return Catalog{
		// MTN express bundles (3-15min delivery)
		"mtn-1-express":  {Network: "mtn", OfferSlug: "mtn_express_bundle", VolumeGB: 1, BundleType: "express", CostPrice: 4.75},
		"mtn-2-express":  {Network: "mtn", OfferSlug: "mtn_express_bundle", VolumeGB: 2, BundleType: "express", CostPrice: 9.25},
		"mtn-3-express":  {Network: "mtn", OfferSlug: "mtn_express_bundle", VolumeGB: 3, BundleType: "express", CostPrice: 13.50},
		"mtn-4-express":  {Network: "mtn", OfferSlug: "mtn_express_bundle", VolumeGB: 4, BundleType: "express", CostPrice: 18.50},
		"mtn-5-express":  {Network: "mtn", OfferSlug: "mtn_express_bundle", VolumeGB: 5, BundleType: "express", CostPrice: 22.00},
		"mtn-6-express":  {Network: "mtn", OfferSlug: "mtn_express_bundle", VolumeGB: 6, BundleType: "express", CostPrice: 27.00},
		"mtn-7-express":  {Network: "mtn", OfferSlug: "mtn_express_bundle", VolumeGB: 7, BundleType: "express", CostPrice: 32.00},
		"mtn-8-express":  {Network: "mtn", OfferSlug: "mtn_express_bundle", VolumeGB: 8, BundleType: "express", CostPrice: 36.20},
		"mtn-10-express": {Network: "mtn", OfferSlug: "mtn_express_bundle", VolumeGB: 10, BundleType: "express", CostPrice: 42.00},
		"mtn-12-express": {Network: "mtn", OfferSlug: "mtn_express_bundle", VolumeGB: 12, BundleType: "express", CostPrice: 53.00},
		"mtn-15-express": {Network: "mtn", OfferSlug: "mtn_express_bundle", VolumeGB: 15, BundleType: "express", CostPrice: 62.50},
		"mtn-20-express": {Network: "mtn", OfferSlug: "mtn_express_bundle", VolumeGB: 20, BundleType: "express", CostPrice: 83.00},
		"mtn-25-express": {Network: "mtn", OfferSlug: "mtn_express_bundle", VolumeGB: 25, BundleType: "express", CostPrice: 104.00},
		"mtn-30-express": {Network: "mtn", OfferSlug: "mtn_express_bundle", VolumeGB: 30, BundleType: "express", CostPrice: 125.00},
		"mtn-40-express": {Network: "mtn", OfferSlug: "mtn_express_bundle", VolumeGB: 40, BundleType: "express", CostPrice: 165.00},

		// MTN beneficiary bundles (30min-2hrs delivery)
		"mtn-1-beneficiary":   {Network: "mtn", OfferSlug: "master_beneficiary_bundle", VolumeGB: 1, BundleType: "beneficiary", CostPrice: 4.40},
		"mtn-2-beneficiary":   {Network: "mtn", OfferSlug: "master_beneficiary_bundle", VolumeGB: 2, BundleType: "beneficiary", CostPrice: 8.70},
		"mtn-3-beneficiary":   {Network: "mtn", OfferSlug: "master_beneficiary_bundle", VolumeGB: 3, BundleType: "beneficiary", CostPrice: 12.90},
		"mtn-4-beneficiary":   {Network: "mtn", OfferSlug: "master_beneficiary_bundle", VolumeGB: 4, BundleType: "beneficiary", CostPrice: 17.50},
		"mtn-5-beneficiary":   {Network: "mtn", OfferSlug: "master_beneficiary_bundle", VolumeGB: 5, BundleType: "beneficiary", CostPrice: 21.60},
		"mtn-6-beneficiary":   {Network: "mtn", OfferSlug: "master_beneficiary_bundle", VolumeGB: 6, BundleType: "beneficiary", CostPrice: 26.00},
		"mtn-7-beneficiary":   {Network: "mtn", OfferSlug: "master_beneficiary_bundle", VolumeGB: 7, BundleType: "beneficiary", CostPrice: 30.40},
		"mtn-8-beneficiary":   {Network: "mtn", OfferSlug: "master_beneficiary_bundle", VolumeGB: 8, BundleType: "beneficiary", CostPrice: 35.00},
		"mtn-9-beneficiary":   {Network: "mtn", OfferSlug: "master_beneficiary_bundle", VolumeGB: 9, BundleType: "beneficiary", CostPrice: 38.50},
		"mtn-10-beneficiary":  {Network: "mtn", OfferSlug: "master_beneficiary_bundle", VolumeGB: 10, BundleType: "beneficiary", CostPrice: 41.00},
		"mtn-12-beneficiary":  {Network: "mtn", OfferSlug: "master_beneficiary_bundle", VolumeGB: 12, BundleType: "beneficiary", CostPrice: 51.60},
		"mtn-15-beneficiary":  {Network: "mtn", OfferSlug: "master_beneficiary_bundle", VolumeGB: 15, BundleType: "beneficiary", CostPrice: 60.40},
		"mtn-20-beneficiary":  {Network: "mtn", OfferSlug: "master_beneficiary_bundle", VolumeGB: 20, BundleType: "beneficiary", CostPrice: 79.00},
		"mtn-25-beneficiary":  {Network: "mtn", OfferSlug: "master_beneficiary_bundle", VolumeGB: 25, BundleType: "beneficiary", CostPrice: 99.80},
		"mtn-30-beneficiary":  {Network: "mtn", OfferSlug: "master_beneficiary_bundle", VolumeGB: 30, BundleType: "beneficiary", CostPrice: 119.20},
		"mtn-40-beneficiary":  {Network: "mtn", OfferSlug: "master_beneficiary_bundle", VolumeGB: 40, BundleType: "beneficiary", CostPrice: 158.00},
		"mtn-50-beneficiary":  {Network: "mtn", OfferSlug: "master_beneficiary_bundle", VolumeGB: 50, BundleType: "beneficiary", CostPrice: 195.00},
		"mtn-100-beneficiary": {Network: "mtn", OfferSlug: "master_beneficiary_bundle", VolumeGB: 100, BundleType: "beneficiary", CostPrice: 380.00},

		// AirtelTigo bundles
		"airtel-1":          {Network: "at", OfferSlug: "ishare_data_bundle", VolumeGB: 1, BundleType: "ishare", CostPrice: 5.20},
		"airtel-2":          {Network: "at", OfferSlug: "ishare_data_bundle", VolumeGB: 2, BundleType: "ishare", CostPrice: 9.80},
		"airtel-3":          {Network: "at", OfferSlug: "ishare_data_bundle", VolumeGB: 3, BundleType: "ishare", CostPrice: 14.20},
		"airtel-5":          {Network: "at", OfferSlug: "ishare_data_bundle", VolumeGB: 5, BundleType: "ishare", CostPrice: 20.50},
		"airtel-10":         {Network: "at", OfferSlug: "ishare_data_bundle", VolumeGB: 10, BundleType: "ishare", CostPrice: 39.00},
		"airtel-40-bigtime": {Network: "at", OfferSlug: "bigtime_data_bundle", VolumeGB: 40, BundleType: "bigtime", CostPrice: 85.00},

		// Telecel bundles
		"telecel-5":  {Network: "telecel", OfferSlug: "telecel_express", VolumeGB: 5, BundleType: "telecel", CostPrice: 21.00},
		"telecel-10": {Network: "telecel", OfferSlug: "telecel_expiry_bundle", VolumeGB: 10, BundleType: "telecel", CostPrice: 40.00},
		"telecel-20": {Network: "telecel", OfferSlug: "telecel_expiry_bundle", VolumeGB: 20, BundleType: "telecel", CostPrice: 75.00},
	}
}
