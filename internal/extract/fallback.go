package extract

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"slices"
	"strconv"
	"time"
)

// legacyRequired are synthesized in legacy mode when no rule matched them.
var legacyRequired = []Field{ProcessNumber, Provider, Driver, PlateTractor, NetWeight}

var placeholderProviders = []string{
	"PROVEEDOR NO IDENTIFICADO",
	"PROVEEDOR PENDIENTE DE VALIDACION",
	"PROVEEDOR SIN REGISTRO",
	"PROVEEDOR GENERICO",
}

var placeholderDrivers = []string{
	"CONDUCTOR NO IDENTIFICADO",
	"CONDUCTOR PENDIENTE DE VALIDACION",
	"CONDUCTOR SIN REGISTRO",
}

const (
	placeholderPlate = "SIN-PLACA"
	errorPrefix      = "ERR-"
)

const unidentified = "NO IDENTIFICADO"

type digest [sha256.Size]byte

func (d digest) word(i int) uint64 {
	return binary.BigEndian.Uint64(d[i*8 : i*8+8])
}

// wordFor derives a separate word per field from the digest.
func (d digest) wordFor(f Field) uint64 {
	sum := sha256.Sum256(append(d[:], string(f)...))
	return binary.BigEndian.Uint64(sum[:8])
}

func plate(w uint64) string {
	return fmt.Sprintf("%c%c%c-%03d", 'A'+byte(w%26), 'A'+byte(w/26%26), 'A'+byte(w/676%26), w/17576%1000)
}

// synthesize derives a stable stand-in value for f from the text digest.
// Date fields take the extraction time.
func synthesize(f Field, d digest, fs Fields, now time.Time) (Value, bool) {
	switch f {
	case ProcessNumber:
		return StringValue(strconv.FormatUint(100000+d.word(0)%900000, 10)), true
	case Provider:
		return StringValue(placeholderProviders[d.word(1)%uint64(len(placeholderProviders))]), true
	case Driver:
		return StringValue(placeholderDrivers[d.word(2)%uint64(len(placeholderDrivers))]), true
	case PlateTractor:
		return StringValue(plate(d.word(3))), true
	case PlateTrailer:
		return StringValue(plate(d.wordFor(f))), true
	case NetWeight:
		return NumberValue(float64(20000 + d.wordFor(f)%10000)), true
	case TareWeight:
		return NumberValue(float64(10000 + d.wordFor(f)%10000)), true
	case GrossWeight:
		tare, okT := fs.Float(TareWeight)
		net, okN := fs.Float(NetWeight)
		if okT && okN {
			return NumberValue(tare + net), true
		}
		return NumberValue(float64(30000 + d.wordFor(f)%20000)), true
	case RecipientRUC:
		return StringValue(fmt.Sprintf("20%09d", d.wordFor(f)%1000000000)), true
	case WeighNumber, CardNumber, GuideNumber, DeclarationNumber, VerificationCode, DriverLicense:
		return StringValue(fmt.Sprintf("%06d", d.wordFor(f)%1000000)), true
	}
	switch f.Kind() {
	case KindTime:
		return TimeValue(now), true
	case KindNumber:
		return NumberValue(float64(d.wordFor(f) % 1000)), true
	case KindString:
		return StringValue(unidentified), true
	}
	return Value{}, false
}

// fallbackTargets is legacyRequired followed by the configured required
// fields it does not already cover.
func fallbackTargets(required []string) []Field {
	out := append([]Field(nil), legacyRequired...)
	for _, key := range required {
		f, ok := Known(key)
		if ok && !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}

func applyFallbacks(fs Fields, text string, targets []Field, now time.Time) {
	d := digest(sha256.Sum256([]byte(text)))
	for _, f := range targets {
		if _, ok := fs.Get(f); ok {
			continue
		}
		if v, ok := synthesize(f, d, fs, now); ok {
			fs.Set(f, v, FallbackUsed)
		}
	}
}

// recoveredFields is the fixed map returned after an internal failure.
func recoveredFields(failure string, now time.Time) Fields {
	sum := sha256.Sum256([]byte(failure))
	fs := Fields{}
	fs.Set(ProcessNumber, StringValue(errorPrefix+hex.EncodeToString(sum[:4])), FallbackUsed)
	fs.Set(Provider, StringValue(placeholderProviders[0]), FallbackUsed)
	fs.Set(Driver, StringValue(placeholderDrivers[0]), FallbackUsed)
	fs.Set(PlateTractor, StringValue(placeholderPlate), FallbackUsed)
	fs.Set(NetWeight, NumberValue(0), FallbackUsed)
	fs.Set(WeighDate, TimeValue(now), FallbackUsed)
	return fs
}
