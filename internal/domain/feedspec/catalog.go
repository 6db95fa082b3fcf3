package feedspec

// CatalogVersion identifies the feed specification revision this catalog
// was built against. Bump when the channel publishes a new spec.
const CatalogVersion = "2026.2"

// Well-known attribute ids referenced across the engine
const (
	AttrID                  = "id"
	AttrItemGroupID         = "item_group_id"
	AttrTitle               = "title"
	AttrDescription         = "description"
	AttrLink                = "link"
	AttrPrice               = "price"
	AttrCheckoutEnabled     = "checkout_enabled"
	AttrSellerPrivacyPolicy = "seller_privacy_policy"
	AttrSellerTOS           = "seller_terms_of_service"
	AttrShippingLength      = "shipping_length"
	AttrShippingWidth       = "shipping_width"
	AttrShippingHeight      = "shipping_height"
)

// Transform keys bound to catalog attributes
const (
	TransformCategoryPath = "category_path"
	TransformPrice        = "price"
	TransformDimLength    = "dimension_length"
	TransformDimWidth     = "dimension_width"
	TransformDimHeight    = "dimension_height"
	TransformWeight       = "weight_unit"
	TransformVariantTitle = "variant_title"
	TransformGTIN         = "gtin"
	TransformPopularity   = "popularity"
	TransformCondition    = "condition_default"
	TransformAvailability = "availability"
	TransformBool         = "bool"
	TransformStringList   = "string_list"
	TransformText         = "text"
)

// Attribute categories
const (
	CategoryBasic      = "Basic product data"
	CategoryPricing    = "Price & availability"
	CategoryIdentifier = "Product identifiers"
	CategoryDetail     = "Detailed description"
	CategoryShipping   = "Shipping"
	CategoryTax        = "Tax"
	CategoryCampaign   = "Campaigns & destinations"
	CategorySeller     = "Seller information"
)

// Catalog returns the full feed attribute catalog. The slice is rebuilt on
// every call; callers that need lookups should go through ByID.
func Catalog() []FieldSpec {
	return []FieldSpec{
		// Basic product data. The record identity fields are locked: the
		// channel requires them to be stable across submissions.
		{ID: AttrID, Category: CategoryBasic, Requirement: RequirementRequired, DataType: TypeString, LockPolicy: LockFull, LockedPath: "id"},
		{ID: AttrItemGroupID, Category: CategoryBasic, Requirement: RequirementConditional, DataType: TypeString, LockPolicy: LockFull, LockedPath: "parent_id"},
		{ID: AttrTitle, Category: CategoryBasic, Requirement: RequirementRequired, DataType: TypeString, TransformKey: TransformVariantTitle},
		{ID: AttrDescription, Category: CategoryBasic, Requirement: RequirementRequired, DataType: TypeString, TransformKey: TransformText},
		{ID: AttrLink, Category: CategoryBasic, Requirement: RequirementRequired, DataType: TypeURL, LockPolicy: LockStaticAllowed, LockedPath: "url"},
		{ID: "mobile_link", Category: CategoryBasic, Requirement: RequirementOptional, DataType: TypeURL},
		{ID: "canonical_link", Category: CategoryBasic, Requirement: RequirementOptional, DataType: TypeURL},
		{ID: "image_link", Category: CategoryBasic, Requirement: RequirementRequired, DataType: TypeURL},
		{ID: "additional_image_link", Category: CategoryBasic, Requirement: RequirementRecommended, DataType: TypeList, TransformKey: TransformStringList},
		{ID: "condition", Category: CategoryBasic, Requirement: RequirementRequired, DataType: TypeString, TransformKey: TransformCondition},

		// Price & availability
		{ID: "availability", Category: CategoryPricing, Requirement: RequirementRequired, DataType: TypeString, TransformKey: TransformAvailability},
		{ID: "availability_date", Category: CategoryPricing, Requirement: RequirementConditional, DataType: TypeString},
		{ID: AttrPrice, Category: CategoryPricing, Requirement: RequirementRequired, DataType: TypeString, TransformKey: TransformPrice},
		{ID: "sale_price", Category: CategoryPricing, Requirement: RequirementRecommended, DataType: TypeString, TransformKey: TransformPrice},
		{ID: "sale_price_effective_date", Category: CategoryPricing, Requirement: RequirementOptional, DataType: TypeString},
		{ID: "cost_of_goods_sold", Category: CategoryPricing, Requirement: RequirementOptional, DataType: TypeString, TransformKey: TransformPrice},
		{ID: "expiration_date", Category: CategoryPricing, Requirement: RequirementOptional, DataType: TypeString},
		{ID: "sell_on_channel_quantity", Category: CategoryPricing, Requirement: RequirementOptional, DataType: TypeInt},

		// Product identifiers
		{ID: "brand", Category: CategoryIdentifier, Requirement: RequirementRequired, DataType: TypeString},
		{ID: "gtin", Category: CategoryIdentifier, Requirement: RequirementRecommended, DataType: TypeString, TransformKey: TransformGTIN},
		{ID: "mpn", Category: CategoryIdentifier, Requirement: RequirementRecommended, DataType: TypeString},
		{ID: "identifier_exists", Category: CategoryIdentifier, Requirement: RequirementOptional, DataType: TypeBool, TransformKey: TransformBool},

		// Detailed description
		{ID: "product_category", Category: CategoryDetail, Requirement: RequirementRecommended, DataType: TypeString, TransformKey: TransformCategoryPath},
		{ID: "product_type", Category: CategoryDetail, Requirement: RequirementOptional, DataType: TypeString},
		{ID: "gender", Category: CategoryDetail, Requirement: RequirementConditional, DataType: TypeString},
		{ID: "age_group", Category: CategoryDetail, Requirement: RequirementConditional, DataType: TypeString},
		{ID: "color", Category: CategoryDetail, Requirement: RequirementConditional, DataType: TypeString},
		{ID: "size", Category: CategoryDetail, Requirement: RequirementConditional, DataType: TypeString},
		{ID: "size_type", Category: CategoryDetail, Requirement: RequirementOptional, DataType: TypeString},
		{ID: "size_system", Category: CategoryDetail, Requirement: RequirementOptional, DataType: TypeString},
		{ID: "material", Category: CategoryDetail, Requirement: RequirementOptional, DataType: TypeString},
		{ID: "pattern", Category: CategoryDetail, Requirement: RequirementOptional, DataType: TypeString},
		{ID: "multipack", Category: CategoryDetail, Requirement: RequirementOptional, DataType: TypeInt},
		{ID: "is_bundle", Category: CategoryDetail, Requirement: RequirementOptional, DataType: TypeBool, TransformKey: TransformBool},
		{ID: "adult", Category: CategoryDetail, Requirement: RequirementOptional, DataType: TypeBool, TransformKey: TransformBool},
		{ID: "energy_efficiency_class", Category: CategoryDetail, Requirement: RequirementOptional, DataType: TypeString},
		{ID: "unit_pricing_measure", Category: CategoryDetail, Requirement: RequirementOptional, DataType: TypeString},
		{ID: "unit_pricing_base_measure", Category: CategoryDetail, Requirement: RequirementOptional, DataType: TypeString},
		{ID: "product_highlight", Category: CategoryDetail, Requirement: RequirementOptional, DataType: TypeList, TransformKey: TransformStringList},
		{ID: "product_detail", Category: CategoryDetail, Requirement: RequirementOptional, DataType: TypeList, TransformKey: TransformStringList},
		{ID: "popularity_score", Category: CategoryDetail, Requirement: RequirementOptional, DataType: TypeFloat, TransformKey: TransformPopularity},
		{ID: "product_rating", Category: CategoryDetail, Requirement: RequirementOptional, DataType: TypeFloat},

		// Shipping
		{ID: "shipping", Category: CategoryShipping, Requirement: RequirementRecommended, DataType: TypeString},
		{ID: "shipping_label", Category: CategoryShipping, Requirement: RequirementOptional, DataType: TypeString},
		{ID: "shipping_weight", Category: CategoryShipping, Requirement: RequirementRecommended, DataType: TypeString, TransformKey: TransformWeight},
		{ID: AttrShippingLength, Category: CategoryShipping, Requirement: RequirementOptional, DataType: TypeString, TransformKey: TransformDimLength},
		{ID: AttrShippingWidth, Category: CategoryShipping, Requirement: RequirementOptional, DataType: TypeString, TransformKey: TransformDimWidth},
		{ID: AttrShippingHeight, Category: CategoryShipping, Requirement: RequirementOptional, DataType: TypeString, TransformKey: TransformDimHeight},
		{ID: "ships_from_country", Category: CategoryShipping, Requirement: RequirementOptional, DataType: TypeString},
		{ID: "transit_time_label", Category: CategoryShipping, Requirement: RequirementOptional, DataType: TypeString},
		{ID: "max_handling_time", Category: CategoryShipping, Requirement: RequirementOptional, DataType: TypeInt},
		{ID: "min_handling_time", Category: CategoryShipping, Requirement: RequirementOptional, DataType: TypeInt},

		// Tax
		{ID: "tax", Category: CategoryTax, Requirement: RequirementOptional, DataType: TypeString},
		{ID: "tax_category", Category: CategoryTax, Requirement: RequirementOptional, DataType: TypeString},

		// Campaigns & destinations
		{ID: "custom_label_0", Category: CategoryCampaign, Requirement: RequirementOptional, DataType: TypeString},
		{ID: "custom_label_1", Category: CategoryCampaign, Requirement: RequirementOptional, DataType: TypeString},
		{ID: "custom_label_2", Category: CategoryCampaign, Requirement: RequirementOptional, DataType: TypeString},
		{ID: "custom_label_3", Category: CategoryCampaign, Requirement: RequirementOptional, DataType: TypeString},
		{ID: "custom_label_4", Category: CategoryCampaign, Requirement: RequirementOptional, DataType: TypeString},
		{ID: "promotion_id", Category: CategoryCampaign, Requirement: RequirementOptional, DataType: TypeString},
		{ID: "included_destination", Category: CategoryCampaign, Requirement: RequirementOptional, DataType: TypeList, TransformKey: TransformStringList},
		{ID: "excluded_destination", Category: CategoryCampaign, Requirement: RequirementOptional, DataType: TypeList, TransformKey: TransformStringList},
		{ID: "pause", Category: CategoryCampaign, Requirement: RequirementOptional, DataType: TypeString},
		{ID: "ads_redirect", Category: CategoryCampaign, Requirement: RequirementOptional, DataType: TypeURL},
		{ID: "display_ads_id", Category: CategoryCampaign, Requirement: RequirementOptional, DataType: TypeString},
		{ID: "display_ads_title", Category: CategoryCampaign, Requirement: RequirementOptional, DataType: TypeString},
		{ID: "display_ads_link", Category: CategoryCampaign, Requirement: RequirementOptional, DataType: TypeURL},
		{ID: "display_ads_value", Category: CategoryCampaign, Requirement: RequirementOptional, DataType: TypeFloat},

		// Seller information. Seller identity comes from tenant settings and
		// is locked; the policy pages may be replaced with static URLs.
		{ID: "external_seller_id", Category: CategorySeller, Requirement: RequirementRequired, DataType: TypeString, LockPolicy: LockFull, LockedPath: "tenant.seller_id"},
		{ID: "seller_name", Category: CategorySeller, Requirement: RequirementRecommended, DataType: TypeString, LockPolicy: LockStaticAllowed, LockedPath: "tenant.seller_name"},
		{ID: AttrSellerPrivacyPolicy, Category: CategorySeller, Requirement: RequirementOptional, DataType: TypeURL, LockPolicy: LockStaticAllowed, LockedPath: "tenant.privacy_policy_url"},
		{ID: AttrSellerTOS, Category: CategorySeller, Requirement: RequirementOptional, DataType: TypeURL, LockPolicy: LockStaticAllowed, LockedPath: "tenant.terms_of_service_url"},
		{ID: AttrCheckoutEnabled, Category: CategorySeller, Requirement: RequirementOptional, DataType: TypeBool, TransformKey: TransformBool, LockPolicy: LockFull, LockedPath: "tenant.checkout_enabled"},
	}
}
