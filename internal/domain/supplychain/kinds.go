// Package supplychain describes the five record kinds of the rice supply chain: their
// accepted fields, validation chains, defaults and API wording. The store, service and
// handler layers are instantiated once per Kind.
package supplychain

import (
	"github.com/rice-supply-chain-api/internal/validation"
)

// Kind configures one entity collection.
type Kind struct {
	// Name keys the snapshot collection ("chainActors" is stored as chainActors.json).
	Name string
	// Path is the URL segment under /api.
	Path string
	// Singular and Plural are used in response messages.
	Singular string
	Plural   string
	// ListKey names the item array in list responses.
	ListKey string
	// Fields lists the payload keys accepted on create and update.
	Fields []string
	// UpdateOnly lists the keys of Fields that are server-set on create and only
	// accepted on update.
	UpdateOnly []string
	Create validation.Schema
	Update validation.Schema
	// Defaults fills absent fields on create. It returns fresh values on every call.
	Defaults func() map[string]any
	// AlternateKey is an extra lookup field, empty when the kind has none.
	AlternateKey         string
	AlternateKeyNotFound string
}

// NotFoundMessage is the API message for an unknown id.
func (k Kind) NotFoundMessage() string {
	return k.Singular + " not found"
}

// Accepts reports whether field may be set through the API.
func (k Kind) Accepts(field string) bool {
	return contains(k.Fields, field)
}

// AcceptsOnCreate reports whether field may be supplied when the record is created.
func (k Kind) AcceptsOnCreate(field string) bool {
	return k.Accepts(field) && !contains(k.UpdateOnly, field)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

var ChainActor = Kind{
	Name:     "chainActors",
	Path:     "chain-actors",
	Singular: "Chain actor",
	Plural:   "Chain actors",
	ListKey:  "chainActors",
	Fields: []string{
		"name", "actorType", "farmId", "farmerId", "assignedTps", "pin",
		"organization", "address", "balance",
	},
	UpdateOnly: []string{"balance"},
	Create: validation.Schema{
		validation.Required("name", "actorType", "assignedTps", "pin", "organization"),
		validation.IdentifierShape("farmId", "farmerId"),
		validation.ArrayBound("actorType", 10),
		validation.NonNegative("assignedTps"),
		validation.Enum("organization", organizations...),
	},
	Update: validation.Schema{
		validation.IdentifierShape("farmId", "farmerId"),
		validation.ArrayBound("actorType", 10),
		validation.NonNegative("assignedTps"),
		validation.NonNegative("balance"),
		validation.Enum("organization", organizations...),
	},
	Defaults: func() map[string]any {
		return map[string]any{"balance": 0}
	},
}

var ProductionSeason = Kind{
	Name:     "productionSeasons",
	Path:     "production-seasons",
	Singular: "Production season",
	Plural:   "Production seasons",
	ListKey:  "seasons",
	Fields: []string{
		"farmerId", "cropYear", "processedYieldKg", "totalYieldKg", "variety",
		"plannedPractice", "plantingDate", "harvestDate", "irrigationPractice",
		"fertilizerUsed", "pesticideUsed", "moistureContent", "carbonSmartCertified",
		"validationStatus", "validatorId",
	},
	Create: validation.Schema{
		validation.Required("farmerId", "cropYear", "processedYieldKg", "carbonSmartCertified"),
		validation.IdentifierShape("farmerId", "validatorId"),
		validation.NonNegative("processedYieldKg"),
		validation.NonNegative("totalYieldKg"),
		validation.NumericRange("moistureContent", 0, MoistureMax),
		validation.ParseableDate("plantingDate"),
		validation.ParseableDate("harvestDate"),
		validation.Enum("validationStatus", validationStatuses...),
	},
	Update: validation.Schema{
		validation.IdentifierShape("farmerId", "validatorId"),
		validation.NonNegative("processedYieldKg"),
		validation.NonNegative("totalYieldKg"),
		validation.NumericRange("moistureContent", 0, MoistureMax),
		validation.ParseableDate("plantingDate"),
		validation.ParseableDate("harvestDate"),
		validation.Enum("validationStatus", validationStatuses...),
	},
	Defaults: func() map[string]any {
		return map[string]any{
			"validationStatus": ValidationStatusPending,
			"validatorId":      nil,
		}
	},
}

var MilledRice = Kind{
	Name:     "milledRice",
	Path:     "milled-rice",
	Singular: "Milled rice",
	Plural:   "Milled rice records",
	ListKey:  "milledRice",
	Fields: []string{
		"farmerId", "totalWeightKg", "millingType", "quality", "photoUrls",
		"moisture", "totalWeightProcessedKg",
	},
	Create: validation.Schema{
		validation.Required("farmerId", "totalWeightKg", "millingType", "quality", "moisture", "totalWeightProcessedKg"),
		validation.IdentifierShape("farmerId"),
		validation.ArrayBound("photoUrls", 20),
		validation.NumericRange("moisture", 0, MoistureMax),
		validation.NonNegative("totalWeightProcessedKg"),
	},
	Update: validation.Schema{
		validation.IdentifierShape("farmerId"),
		validation.ArrayBound("photoUrls", 20),
		validation.NumericRange("moisture", 0, MoistureMax),
		validation.NonNegative("totalWeightProcessedKg"),
	},
	Defaults: func() map[string]any {
		return map[string]any{"photoUrls": []any{}}
	},
}

var RiceBatch = Kind{
	Name:     "riceBatches",
	Path:     "rice-batches",
	Singular: "Rice batch",
	Plural:   "Rice batches",
	ListKey:  "batches",
	Fields: []string{
		"qrCode", "millingId", "batchWeightKg", "moistureContent", "seasonId",
		"currentHolderId", "pricePerKg", "dryingId", "validator", "status",
	},
	Create: validation.Schema{
		validation.Required("qrCode", "batchWeightKg", "seasonId", "status"),
		validation.IdentifierShape("millingId", "seasonId", "currentHolderId", "dryingId", "validator"),
		validation.NonNegative("batchWeightKg"),
		validation.NumericRange("moistureContent", 0, MoistureMax),
		validation.NonNegative("pricePerKg"),
		validation.Enum("status", batchStatuses...),
	},
	Update: validation.Schema{
		validation.IdentifierShape("millingId", "seasonId", "currentHolderId", "dryingId", "validator"),
		validation.NonNegative("batchWeightKg"),
		validation.NumericRange("moistureContent", 0, MoistureMax),
		validation.NonNegative("pricePerKg"),
		validation.Enum("status", batchStatuses...),
	},
	Defaults:             func() map[string]any { return map[string]any{} },
	AlternateKey:         "qrCode",
	AlternateKeyNotFound: "Rice batch not found with the provided QR code",
}

var ChainTransaction = Kind{
	Name:     "chainTransactions",
	Path:     "chain-transactions",
	Singular: "Chain transaction",
	Plural:   "Chain transactions",
	ListKey:  "transactions",
	Fields: []string{
		"batchIds", "fromActorId", "toActorId", "pricePerKg", "moisture", "quality",
		"paymentReference", "paymentMethod", "status", "geotagging",
	},
	Create: validation.Schema{
		validation.Required("batchIds", "toActorId"),
		validation.IdentifierShape("fromActorId", "toActorId"),
		validation.ArrayBound("batchIds", 50),
		validation.ArrayBound("paymentReference", 10),
		validation.ArrayBound("geotagging", 10),
		validation.NonNegative("pricePerKg"),
		validation.NumericRange("moisture", 0, MoistureMax),
		validation.Enum("paymentMethod", paymentMethods...),
		validation.Enum("status", transactionStatuses...),
	},
	Update: validation.Schema{
		validation.IdentifierShape("fromActorId", "toActorId"),
		validation.ArrayBound("batchIds", 50),
		validation.ArrayBound("paymentReference", 10),
		validation.ArrayBound("geotagging", 10),
		validation.NonNegative("pricePerKg"),
		validation.NumericRange("moisture", 0, MoistureMax),
		validation.Enum("paymentMethod", paymentMethods...),
		validation.Enum("status", transactionStatuses...),
	},
	Defaults: func() map[string]any {
		return map[string]any{
			"status":   TransactionStatusPending,
			"batchIds": []any{},
		}
	},
}

// Kinds lists every entity kind in routing order.
func Kinds() []Kind {
	return []Kind{ChainActor, ProductionSeason, MilledRice, RiceBatch, ChainTransaction}
}

// KindByName looks a kind up by its collection name.
func KindByName(name string) (Kind, bool) {
	for _, k := range Kinds() {
		if k.Name == name {
			return k, true
		}
	}
	return Kind{}, false
}
