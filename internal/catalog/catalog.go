// Package catalog declares the streams the tap emits: their names, JSON
// schemas and key properties.
package catalog

const (
	Accounts          = "Accounts"
	Programmes        = "Programmes"
	ProgrammesDetails = "ProgrammesDetails"
	Transactions      = "Transactions"
	AggReport         = "AggReport"
	AggReportCreative = "AggReportCreative"
	CommissionGroups  = "Commissiongroup"
)

// Schema is a JSON schema object.
type Schema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
}

// Property is a single JSON schema property.
type Property struct {
	Type []string `json:"type"`
}

// Stream pairs a stream name with its schema and key properties.
type Stream struct {
	Name          string
	Schema        Schema
	KeyProperties []string
}

var (
	number         = Property{Type: []string{"number"}}
	str            = Property{Type: []string{"string"}}
	nullableNumber = Property{Type: []string{"null", "number"}}
	nullableString = Property{Type: []string{"null", "string"}}
	nullableBool   = Property{Type: []string{"null", "boolean"}}
)

func schema(fields map[string]Property) Schema {
	props := make(map[string]Property, len(fields)+2)
	for k, v := range fields {
		props[k] = v
	}
	props["startDate"] = str
	props["endDate"] = str
	return Schema{Type: "object", Properties: props}
}

func reportFields(extra map[string]Property) map[string]Property {
	fields := map[string]Property{
		"advertiserId":   number,
		"advertiserName": str,
		"publisherId":    number,
		"publisherName":  str,
		"region":         str,
		"currency":       str,
		"impressions":    number,
		"clicks":         number,
	}
	for _, prefix := range []string{"pending", "confirmed", "bonus", "total", "declined"} {
		fields[prefix+"No"] = number
		fields[prefix+"Value"] = number
		fields[prefix+"Comm"] = number
	}
	for k, v := range extra {
		fields[k] = v
	}
	return fields
}

var streams = map[string]Stream{
	Accounts: {
		Name: Accounts,
		Schema: schema(map[string]Property{
			"accountId":   number,
			"accountName": str,
			"accountType": str,
			"userRole":    str,
		}),
		KeyProperties: []string{"accountId"},
	},
	Programmes: {
		Name: Programmes,
		Schema: schema(map[string]Property{
			"id":              number,
			"name":            nullableString,
			"displayUrl":      nullableString,
			"clickThroughUrl": nullableString,
			"logoUrl":         nullableString,
			"countryName":     nullableString,
			"countryCode":     nullableString,
			"currencyCode":    nullableString,
		}),
		KeyProperties: []string{"id"},
	},
	ProgrammesDetails: {
		Name: ProgrammesDetails,
		Schema: schema(map[string]Property{
			"id":                 number,
			"name":               str,
			"displayUrl":         str,
			"clickThroughUrl":    str,
			"logoUrl":            str,
			"countryName":        str,
			"countryCode":        str,
			"validDomains":       str,
			"currencyCode":       str,
			"averagePaymentTime": str,
			"approvalPercentage": number,
			"epc":                number,
			"conversionRate":     number,
			"validationDays":     number,
			"awinIndex":          number,
			"percentagemin":      nullableNumber,
			"percentagemax":      nullableNumber,
			"amountmin":          nullableNumber,
			"amountmax":          nullableNumber,
		}),
		KeyProperties: []string{"id"},
	},
	Transactions: {
		Name: Transactions,
		Schema: schema(map[string]Property{
			"id":                  number,
			"url":                 str,
			"advertiserId":        number,
			"publisherId":         number,
			"siteName":            nullableString,
			"datasettype":         str,
			"commissionStatus":    str,
			"commissionCurrency":  str,
			"saleAmount":          nullableNumber,
			"saleCurrency":        str,
			"ipHash":              nullableString,
			"customerCountry":     nullableString,
			"clickRef":            nullableString,
			"clickRef2":           nullableString,
			"clickRef3":           nullableString,
			"clickRef4":           nullableString,
			"clickRef5":           nullableString,
			"clickRef6":           nullableString,
			"clickDate":           nullableString,
			"transactionDate":     nullableString,
			"validationDate":      nullableString,
			"type":                nullableString,
			"declineReason":       nullableString,
			"voucherCodeUsed":     nullableBool,
			"voucherCode":         nullableString,
			"lapseTime":           nullableNumber,
			"amended":             nullableBool,
			"amendReason":         nullableString,
			"oldSaleAmount":       nullableNumber,
			"oldCommissionAmount": nullableNumber,
			"clickDevice":         nullableString,
			"transactionDevice":   nullableString,
			"publisherUrl":        nullableString,
			"advertiserCountry":   nullableString,
			"orderRef":            nullableString,
			"customParameters":    nullableString,
			"commissionGroupId":   nullableNumber,
			"amount":              nullableNumber,
			"commissionAmount":    nullableNumber,
			"commissionGroupCode": nullableString,
			"commissionGroupName": nullableString,
			"paidToPublisher":     nullableBool,
			"paymentId":           nullableNumber,
			"transactionQueryId":  nullableNumber,
			"originalSaleAmount":  nullableNumber,
		}),
		// One upstream transaction yields a record per commission group part,
		// and may be seen from both sides of the relationship.
		KeyProperties: []string{"id", "datasettype", "commissionGroupId"},
	},
	AggReport: {
		Name:          AggReport,
		Schema:        schema(reportFields(nil)),
		KeyProperties: []string{"advertiserId", "publisherId", "region"},
	},
	AggReportCreative: {
		Name: AggReportCreative,
		Schema: schema(reportFields(map[string]Property{
			"creativeId":   number,
			"creativeName": str,
			"tagName":      str,
		})),
		KeyProperties: []string{"advertiserId", "publisherId", "region", "creativeId"},
	},
	CommissionGroups: {
		Name: CommissionGroups,
		Schema: schema(map[string]Property{
			"groupId":    number,
			"groupCode":  str,
			"groupName":  str,
			"type":       str,
			"percentage": number,
		}),
		KeyProperties: []string{"groupId"},
	},
}

// Lookup returns the stream registered under name.
func Lookup(name string) (Stream, bool) {
	s, ok := streams[name]
	return s, ok
}

// MustLookup is Lookup for names known at compile time.
func MustLookup(name string) Stream {
	s, ok := streams[name]
	if !ok {
		panic("catalog: unknown stream " + name)
	}
	return s
}
