package checksum

import (
	"crypto/sha512"
	"encoding/base64"
	"encoding/json"
	"sort"
	"strings"

	"github.com/obgateway/consent-cms/logging"
	"github.com/obgateway/consent-cms/model"
)

var logger = logging.Log()

const delimiter = "_%_"

// latest version, used for all newly computed checksums
const CurrentVersion = "003"

/**
* Orders two account references for the canonical form of a version. Returns
* true when left sorts before right.
 */
type accessComparator func(left, right model.AccountReference) bool

/**
* Versioned table of canonicalization rules. Older versions stay selectable so
* that checksums written by previous releases remain verifiable.
 */
var comparatorByVersion = map[string]accessComparator{
	"001": func(left, right model.AccountReference) bool {
		if left.Iban != right.Iban {
			return left.Iban < right.Iban
		}
		return left.Currency < right.Currency
	},
	"002": func(left, right model.AccountReference) bool {
		if left.ResourceID != right.ResourceID {
			return left.ResourceID < right.ResourceID
		}
		return left.Currency < right.Currency
	},
	"003": func(left, right model.AccountReference) bool {
		if left.ResourceID != right.ResourceID {
			return left.ResourceID < right.ResourceID
		}
		if left.AspspAccountID != right.AspspAccountID {
			return left.AspspAccountID < right.AspspAccountID
		}
		return left.Currency < right.Currency
	},
}

/**
* Fields that make up the content identity of a consent. Psu identity and
* timestamps are deliberately left out, equal checksums mean equal consent
* content regardless of who requested it and when.
 */
type commonFields struct {
	RecurringIndicator       bool                     `json:"recurringIndicator"`
	CombinedServiceIndicator bool                     `json:"combinedServiceIndicator"`
	ValidUntil               string                   `json:"validUntil"`
	TppFrequencyPerDay       int                      `json:"tppFrequencyPerDay"`
	Accesses                 []model.AccountReference `json:"accesses"`
}

type Calculator struct{}

func NewCalculator() Calculator {
	return Calculator{}
}

func (Calculator) Version() string {
	return CurrentVersion
}

/**
* Computes the checksum with the latest version.
 */
func (calculator Calculator) Compute(consent model.Consent) model.ChecksumRecord {
	record, _ := calculator.ComputeWithVersion(consent, CurrentVersion)
	return record
}

func (calculator Calculator) ComputeWithVersion(consent model.Consent, version string) (record model.ChecksumRecord, cmsErr model.CmsError) {
	comparator, ok := comparatorByVersion[version]
	if !ok {
		return record, model.ValidationError("Unknown checksum version " + version + ".")
	}

	checksum := version + delimiter + commonChecksum(consent, comparator)

	aspspSection := aspspAccessChecksums(consent.AspspAccesses, comparator)
	if len(aspspSection) != 0 {
		sectionBytes, err := json.Marshal(aspspSection)
		if err != nil {
			return record, model.InternalError("Was not able to serialize the aspsp access checksums.", err)
		}
		checksum = checksum + delimiter + base64.StdEncoding.EncodeToString(sectionBytes)
	}

	return model.ChecksumRecord{Value: []byte(checksum), Version: version}, cmsErr
}

/**
* Verifies a stored checksum against the current consent content. The stored
* version tag decides which canonicalization is applied, so checksums survive
* schema evolutions.
 */
func (calculator Calculator) Verify(consent model.Consent, checksum []byte) bool {
	elements := strings.Split(string(checksum), delimiter)
	if len(elements) < 2 {
		return false
	}
	version := elements[0]
	comparator, ok := comparatorByVersion[version]
	if !ok {
		logger.Warnf("Checksum with unknown version %s cannot be verified.", version)
		return false
	}

	if elements[1] != commonChecksum(consent, comparator) {
		return false
	}

	if len(elements) > 2 {
		return verifyAspspSection(elements[2], consent.AspspAccesses, comparator)
	}
	return true
}

func commonChecksum(consent model.Consent, comparator accessComparator) string {
	common := commonFields{
		RecurringIndicator:       consent.RecurringIndicator,
		CombinedServiceIndicator: consent.CombinedServiceIndicator,
		ValidUntil:               consent.ValidUntil,
		TppFrequencyPerDay:       consent.TppFrequencyPerDay,
		Accesses:                 canonicalize(consent.TppAccesses, comparator),
	}
	commonBytes, err := json.Marshal(common)
	if err != nil {
		logger.Warnf("Was not able to serialize the consent content: %v", err)
		return ""
	}
	return hashToBase64(commonBytes)
}

/**
* Aspsp confirmed accesses are hashed per access type, so a later confirmation
* of one type does not invalidate the checksums of the others.
 */
func aspspAccessChecksums(accesses []model.AccountReference, comparator accessComparator) map[string]string {
	byType := map[string][]model.AccountReference{}
	for _, access := range accesses {
		if access.ResourceID == "" && access.AspspAccountID == "" {
			continue
		}
		byType[access.TypeAccess] = append(byType[access.TypeAccess], access)
	}

	checksums := map[string]string{}
	for typeAccess, refs := range byType {
		refBytes, err := json.Marshal(canonicalize(refs, comparator))
		if err != nil {
			logger.Warnf("Was not able to serialize the %s accesses: %v", typeAccess, err)
			continue
		}
		checksums[typeAccess] = hashToBase64(refBytes)
	}
	return checksums
}

func verifyAspspSection(encodedSection string, accesses []model.AccountReference, comparator accessComparator) bool {
	sectionBytes, err := base64.StdEncoding.DecodeString(encodedSection)
	if err != nil {
		return false
	}
	var storedChecksums map[string]string
	if err := json.Unmarshal(sectionBytes, &storedChecksums); err != nil {
		return false
	}

	currentChecksums := aspspAccessChecksums(accesses, comparator)
	for typeAccess, stored := range storedChecksums {
		if currentChecksums[typeAccess] != stored {
			return false
		}
	}
	return true
}

/**
* Returns a sorted copy, the input order never influences the checksum.
 */
func canonicalize(accesses []model.AccountReference, comparator accessComparator) []model.AccountReference {
	canonical := make([]model.AccountReference, len(accesses))
	copy(canonical, accesses)
	sort.SliceStable(canonical, func(i, j int) bool {
		return comparator(canonical[i], canonical[j])
	})
	return canonical
}

func hashToBase64(input []byte) string {
	digest := sha512.Sum512(input)
	return base64.StdEncoding.EncodeToString(digest[:])
}
