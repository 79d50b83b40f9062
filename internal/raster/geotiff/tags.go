package geotiff

// tag identifies a TIFF directory entry.
type tag uint16

const (
	tagImageWidth          tag = 256
	tagImageLength         tag = 257
	tagBitsPerSample       tag = 258
	tagCompression         tag = 259
	tagStripOffsets        tag = 273
	tagSamplesPerPixel     tag = 277
	tagRowsPerStrip        tag = 278
	tagStripByteCounts     tag = 279
	tagPlanarConfiguration tag = 284
	tagPredictor           tag = 317
	tagTileWidth           tag = 322
	tagTileLength          tag = 323
	tagTileOffsets         tag = 324
	tagTileByteCounts      tag = 325
	tagSampleFormat        tag = 339
	tagModelPixelScale     tag = 33550
	tagModelTiepoint       tag = 33922
	tagModelTransformation tag = 34264
	tagGDALNoData          tag = 42113
)

// fieldType is the TIFF data type of a directory entry value.
type fieldType uint16

const (
	typeByte      fieldType = 1
	typeASCII     fieldType = 2
	typeShort     fieldType = 3
	typeLong      fieldType = 4
	typeRational  fieldType = 5
	typeSByte     fieldType = 6
	typeUndefined fieldType = 7
	typeSShort    fieldType = 8
	typeSLong     fieldType = 9
	typeSRational fieldType = 10
	typeFloat     fieldType = 11
	typeDouble    fieldType = 12
	typeLong8     fieldType = 16
	typeSLong8    fieldType = 17
	typeIFD8      fieldType = 18
)

func (t fieldType) size() int {
	switch t {
	case typeByte, typeASCII, typeSByte, typeUndefined:
		return 1
	case typeShort, typeSShort:
		return 2
	case typeLong, typeSLong, typeFloat:
		return 4
	case typeRational, typeSRational, typeDouble, typeLong8, typeSLong8, typeIFD8:
		return 8
	}
	return 0
}

const (
	compressionNone        = 1
	compressionLZW         = 5
	compressionDeflate     = 8
	compressionDeflateOld  = 32946
	predictorNone          = 1
	predictorFloatingPoint = 3
	sampleFormatFloat      = 3
)
