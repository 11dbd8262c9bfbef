package dxbc

// Opcode identifies a DXBC token-stream instruction, decoded from the low
// 11 bits of an instruction's leading opcode token (spec.md §4.5 step 1).
// Numeric values follow the Direct3D shader-bytecode opcode table (the
// same table dxvk's dxbc_defs.h and dxbc_decoder.cpp are built against) so
// that any real compiled HLSL blob decodes through this table unchanged.
type Opcode uint32

const (
	OpAdd                          Opcode = 0
	OpAnd                          Opcode = 1
	OpBreak                        Opcode = 2
	OpBreakC                       Opcode = 3
	OpCall                         Opcode = 4
	OpCallC                        Opcode = 5
	OpCase                         Opcode = 6
	OpContinue                     Opcode = 7
	OpContinueC                    Opcode = 8
	OpCut                          Opcode = 9
	OpDefault                      Opcode = 10
	OpDerivRTX                     Opcode = 11
	OpDerivRTY                     Opcode = 12
	OpDiscard                      Opcode = 13
	OpDiv                          Opcode = 14
	OpDp2                          Opcode = 15
	OpDp3                          Opcode = 16
	OpDp4                          Opcode = 17
	OpElse                         Opcode = 18
	OpEmit                         Opcode = 19
	OpEmitThenCut                  Opcode = 20
	OpEndIf                        Opcode = 21
	OpEndLoop                      Opcode = 22
	OpEndSwitch                    Opcode = 23
	OpEq                           Opcode = 24
	OpExp                          Opcode = 25
	OpFrc                          Opcode = 26
	OpFtoI                         Opcode = 27
	OpFtoU                         Opcode = 28
	OpGe                           Opcode = 29
	OpIAdd                         Opcode = 30
	OpIf                           Opcode = 31
	OpIEq                          Opcode = 32
	OpIGe                          Opcode = 33
	OpILt                          Opcode = 34
	OpIMad                         Opcode = 35
	OpIMax                         Opcode = 36
	OpIMin                         Opcode = 37
	OpIMul                         Opcode = 38
	OpINe                          Opcode = 39
	OpINeg                         Opcode = 40
	OpIShl                         Opcode = 41
	OpIShr                         Opcode = 42
	OpItoF                         Opcode = 43
	OpLabel                        Opcode = 44
	OpLd                           Opcode = 45
	OpLdMS                         Opcode = 46
	OpLog                          Opcode = 47
	OpLoop                         Opcode = 48
	OpLt                           Opcode = 49
	OpMad                          Opcode = 50
	OpMin                          Opcode = 51
	OpMax                          Opcode = 52
	OpCustomData                   Opcode = 53
	OpMov                          Opcode = 54
	OpMovc                         Opcode = 55
	OpMul                          Opcode = 56
	OpNe                           Opcode = 57
	OpNop                          Opcode = 58
	OpNot                          Opcode = 59
	OpOr                           Opcode = 60
	OpResInfo                      Opcode = 61
	OpRet                          Opcode = 62
	OpRetC                         Opcode = 63
	OpRoundNE                      Opcode = 64
	OpRoundNI                      Opcode = 65
	OpRoundPI                      Opcode = 66
	OpRoundZ                       Opcode = 67
	OpRsq                          Opcode = 68
	OpSample                       Opcode = 69
	OpSampleC                      Opcode = 70
	OpSampleCLZ                    Opcode = 71
	OpSampleL                      Opcode = 72
	OpSampleD                      Opcode = 73
	OpSampleB                      Opcode = 74
	OpSqrt                         Opcode = 75
	OpSwitch                       Opcode = 76
	OpSinCos                       Opcode = 77
	OpUDiv                         Opcode = 78
	OpULt                          Opcode = 79
	OpUGe                          Opcode = 80
	OpUMul                         Opcode = 81
	OpUMad                         Opcode = 82
	OpUMax                         Opcode = 83
	OpUMin                         Opcode = 84
	OpUShr                         Opcode = 85
	OpUtoF                         Opcode = 86
	OpXor                          Opcode = 87
	OpDclResource                  Opcode = 88
	OpDclConstantBuffer            Opcode = 89
	OpDclSampler                   Opcode = 90
	OpDclIndexRange                Opcode = 91
	OpDclGsOutputPrimitiveTopology Opcode = 92
	OpDclGsInputPrimitive          Opcode = 93
	OpDclMaxOutputVertexCount      Opcode = 94
	OpDclInput                     Opcode = 95
	OpDclInputSgv                  Opcode = 96
	OpDclInputSiv                  Opcode = 97
	OpDclInputPS                   Opcode = 98
	OpDclInputPSSgv                Opcode = 99
	OpDclInputPSSiv                Opcode = 100
	OpDclOutput                    Opcode = 101
	OpDclOutputSgv                 Opcode = 102
	OpDclOutputSiv                 Opcode = 103
	OpDclTemps                     Opcode = 104
	OpDclIndexableTemp             Opcode = 105
	OpDclGlobalFlags               Opcode = 106
	OpLod                          Opcode = 108
	OpGather4                      Opcode = 109
	OpSamplePos                    Opcode = 110
	OpSampleInfo                   Opcode = 111
	OpEmitStream                   Opcode = 117
	OpCutStream                    Opcode = 118
	OpEmitThenCutStream            Opcode = 119
	OpBufInfo                      Opcode = 121
	OpDerivRTXCoarse               Opcode = 122
	OpDerivRTXFine                 Opcode = 123
	OpDerivRTYCoarse               Opcode = 124
	OpDerivRTYFine                 Opcode = 125
	OpGather4C                     Opcode = 126
	OpGather4PO                    Opcode = 127
	OpGather4POC                   Opcode = 128
	OpRcp                          Opcode = 129
	OpF32toF16                     Opcode = 130
	OpF16toF32                     Opcode = 131
	OpCountBits                    Opcode = 134
	OpFirstBitHi                   Opcode = 135
	OpFirstBitLo                   Opcode = 136
	OpFirstBitShi                  Opcode = 137
	OpUBfe                         Opcode = 138
	OpIBfe                         Opcode = 139
	OpBfi                          Opcode = 140
	OpBfRev                        Opcode = 141
	OpDclInputControlPointCount    Opcode = 147
	OpDclOutputControlPointCount   Opcode = 148
	OpDclTessDomain                Opcode = 149
	OpDclTessPartitioning          Opcode = 150
	OpDclTessOutputPrimitive       Opcode = 151
	OpDclThreadGroup               Opcode = 155
	OpDclUavTyped                  Opcode = 156
	OpDclUavRaw                    Opcode = 157
	OpDclUavStructured             Opcode = 158
	OpDclTgsmRaw                   Opcode = 159
	OpDclTgsmStructured            Opcode = 160
	OpDclResourceRaw               Opcode = 161
	OpDclResourceStructured        Opcode = 162
	OpLdUavTyped                   Opcode = 163
	OpStoreUavTyped                Opcode = 164
	OpLdRaw                        Opcode = 165
	OpStoreRaw                     Opcode = 166
	OpLdStructured                 Opcode = 167
	OpStoreStructured              Opcode = 168
	OpAtomicAnd                    Opcode = 169
	OpAtomicOr                     Opcode = 170
	OpAtomicXor                    Opcode = 171
	OpAtomicCmpStore               Opcode = 172
	OpAtomicIAdd                   Opcode = 173
	OpAtomicIMax                   Opcode = 174
	OpAtomicIMin                   Opcode = 175
	OpAtomicUMax                   Opcode = 176
	OpAtomicUMin                   Opcode = 177
	OpImmAtomicAlloc               Opcode = 178
	OpImmAtomicConsume             Opcode = 179
	OpImmAtomicIAdd                Opcode = 180
	OpImmAtomicAnd                 Opcode = 181
	OpImmAtomicOr                  Opcode = 182
	OpImmAtomicXor                 Opcode = 183
	OpImmAtomicExch                Opcode = 184
	OpImmAtomicCmpExch             Opcode = 185
	OpImmAtomicIMax                Opcode = 186
	OpImmAtomicIMin                Opcode = 187
	OpImmAtomicUMax                Opcode = 188
	OpImmAtomicUMin                Opcode = 189
	OpSync                         Opcode = 190
	OpDclGsInstanceCount           Opcode = 206
)

// InstrClass groups opcodes by the lowering strategy they share in
// package compiler (spec.md §4.7's "instruction classes").
type InstrClass uint8

const (
	ClassAlu InstrClass = iota
	ClassDot
	ClassCompare
	ClassMov
	ClassMovc
	ClassSinCos
	ClassSample
	ClassLoadResource
	ClassGather
	ClassResInfo
	ClassControlFlow
	ClassAtomic
	ClassEmit
	ClassSync
	ClassDecl
	ClassCustomData
	ClassNop
	ClassStoreResource
)

// OperandSlot is one declared operand position in an instruction format
// descriptor (spec.md §3 "Instruction format descriptor").
type OperandSlot uint8

const (
	SlotDst OperandSlot = iota
	SlotSrc
	SlotImm32
)

// InstrFormat is the per-opcode format descriptor the decoder is driven
// by: it bounds how many operand tokens the decoder will attempt to
// parse for a given opcode value, per spec.md §4.5 step 4's closing
// invariant ("the decoder MUST not consume operands beyond what the
// format table declares").
type InstrFormat struct {
	Class   InstrClass
	Operand []OperandSlot
}

// instrFormats is the static instruction-format table, indexed by
// Opcode. Encoded as data (a map literal), not code, per spec.md §9's
// design note that this replaces the source's large aggregate
// initializer with a statically-constructed table.
var instrFormats = map[Opcode]InstrFormat{
	OpAdd:            {ClassAlu, []OperandSlot{SlotDst, SlotSrc, SlotSrc}},
	OpDiv:            {ClassAlu, []OperandSlot{SlotDst, SlotSrc, SlotSrc}},
	OpMul:            {ClassAlu, []OperandSlot{SlotDst, SlotSrc, SlotSrc}},
	OpMad:            {ClassAlu, []OperandSlot{SlotDst, SlotSrc, SlotSrc, SlotSrc}},
	OpMin:            {ClassAlu, []OperandSlot{SlotDst, SlotSrc, SlotSrc}},
	OpMax:            {ClassAlu, []OperandSlot{SlotDst, SlotSrc, SlotSrc}},
	OpRsq:            {ClassAlu, []OperandSlot{SlotDst, SlotSrc}},
	OpSqrt:           {ClassAlu, []OperandSlot{SlotDst, SlotSrc}},
	OpRcp:            {ClassAlu, []OperandSlot{SlotDst, SlotSrc}},
	OpExp:            {ClassAlu, []OperandSlot{SlotDst, SlotSrc}},
	OpLog:            {ClassAlu, []OperandSlot{SlotDst, SlotSrc}},
	OpFrc:            {ClassAlu, []OperandSlot{SlotDst, SlotSrc}},
	OpRoundNE:        {ClassAlu, []OperandSlot{SlotDst, SlotSrc}},
	OpRoundNI:        {ClassAlu, []OperandSlot{SlotDst, SlotSrc}},
	OpRoundPI:        {ClassAlu, []OperandSlot{SlotDst, SlotSrc}},
	OpRoundZ:         {ClassAlu, []OperandSlot{SlotDst, SlotSrc}},
	OpDerivRTX:       {ClassAlu, []OperandSlot{SlotDst, SlotSrc}},
	OpDerivRTY:       {ClassAlu, []OperandSlot{SlotDst, SlotSrc}},
	OpDerivRTXCoarse: {ClassAlu, []OperandSlot{SlotDst, SlotSrc}},
	OpDerivRTXFine:   {ClassAlu, []OperandSlot{SlotDst, SlotSrc}},
	OpDerivRTYCoarse: {ClassAlu, []OperandSlot{SlotDst, SlotSrc}},
	OpDerivRTYFine:   {ClassAlu, []OperandSlot{SlotDst, SlotSrc}},

	OpIAdd:        {ClassAlu, []OperandSlot{SlotDst, SlotSrc, SlotSrc}},
	OpIMul:        {ClassAlu, []OperandSlot{SlotDst, SlotDst, SlotSrc, SlotSrc}}, // hi, lo, a, b
	OpIMad:        {ClassAlu, []OperandSlot{SlotDst, SlotSrc, SlotSrc, SlotSrc}},
	OpIMax:        {ClassAlu, []OperandSlot{SlotDst, SlotSrc, SlotSrc}},
	OpIMin:        {ClassAlu, []OperandSlot{SlotDst, SlotSrc, SlotSrc}},
	OpINeg:        {ClassAlu, []OperandSlot{SlotDst, SlotSrc}},
	OpIShl:        {ClassAlu, []OperandSlot{SlotDst, SlotSrc, SlotSrc}},
	OpIShr:        {ClassAlu, []OperandSlot{SlotDst, SlotSrc, SlotSrc}},
	OpUShr:        {ClassAlu, []OperandSlot{SlotDst, SlotSrc, SlotSrc}},
	OpUDiv:        {ClassAlu, []OperandSlot{SlotDst, SlotDst, SlotSrc, SlotSrc}}, // quotient, remainder, a, b
	OpUMad:        {ClassAlu, []OperandSlot{SlotDst, SlotSrc, SlotSrc, SlotSrc}},
	OpUMax:        {ClassAlu, []OperandSlot{SlotDst, SlotSrc, SlotSrc}},
	OpUMin:        {ClassAlu, []OperandSlot{SlotDst, SlotSrc, SlotSrc}},
	OpAnd:         {ClassAlu, []OperandSlot{SlotDst, SlotSrc, SlotSrc}},
	OpOr:          {ClassAlu, []OperandSlot{SlotDst, SlotSrc, SlotSrc}},
	OpXor:         {ClassAlu, []OperandSlot{SlotDst, SlotSrc, SlotSrc}},
	OpNot:         {ClassAlu, []OperandSlot{SlotDst, SlotSrc}},
	OpBfRev:       {ClassAlu, []OperandSlot{SlotDst, SlotSrc}},
	OpCountBits:   {ClassAlu, []OperandSlot{SlotDst, SlotSrc}},
	OpFirstBitHi:  {ClassAlu, []OperandSlot{SlotDst, SlotSrc}},
	OpFirstBitLo:  {ClassAlu, []OperandSlot{SlotDst, SlotSrc}},
	OpFirstBitShi: {ClassAlu, []OperandSlot{SlotDst, SlotSrc}},
	OpUBfe:        {ClassAlu, []OperandSlot{SlotDst, SlotSrc, SlotSrc, SlotSrc}},
	OpIBfe:        {ClassAlu, []OperandSlot{SlotDst, SlotSrc, SlotSrc, SlotSrc}},
	OpBfi:         {ClassAlu, []OperandSlot{SlotDst, SlotSrc, SlotSrc, SlotSrc, SlotSrc}},
	OpF32toF16:    {ClassAlu, []OperandSlot{SlotDst, SlotSrc}},
	OpF16toF32:    {ClassAlu, []OperandSlot{SlotDst, SlotSrc}},
	OpUtoF:        {ClassAlu, []OperandSlot{SlotDst, SlotSrc}},
	OpItoF:        {ClassAlu, []OperandSlot{SlotDst, SlotSrc}},
	OpFtoU:        {ClassAlu, []OperandSlot{SlotDst, SlotSrc}},
	OpFtoI:        {ClassAlu, []OperandSlot{SlotDst, SlotSrc}},

	OpDp2: {ClassDot, []OperandSlot{SlotDst, SlotSrc, SlotSrc}},
	OpDp3: {ClassDot, []OperandSlot{SlotDst, SlotSrc, SlotSrc}},
	OpDp4: {ClassDot, []OperandSlot{SlotDst, SlotSrc, SlotSrc}},

	OpEq:  {ClassCompare, []OperandSlot{SlotDst, SlotSrc, SlotSrc}},
	OpNe:  {ClassCompare, []OperandSlot{SlotDst, SlotSrc, SlotSrc}},
	OpLt:  {ClassCompare, []OperandSlot{SlotDst, SlotSrc, SlotSrc}},
	OpGe:  {ClassCompare, []OperandSlot{SlotDst, SlotSrc, SlotSrc}},
	OpIEq: {ClassCompare, []OperandSlot{SlotDst, SlotSrc, SlotSrc}},
	OpINe: {ClassCompare, []OperandSlot{SlotDst, SlotSrc, SlotSrc}},
	OpILt: {ClassCompare, []OperandSlot{SlotDst, SlotSrc, SlotSrc}},
	OpIGe: {ClassCompare, []OperandSlot{SlotDst, SlotSrc, SlotSrc}},
	OpULt: {ClassCompare, []OperandSlot{SlotDst, SlotSrc, SlotSrc}},
	OpUGe: {ClassCompare, []OperandSlot{SlotDst, SlotSrc, SlotSrc}},

	OpMov:    {ClassMov, []OperandSlot{SlotDst, SlotSrc}},
	OpMovc:   {ClassMovc, []OperandSlot{SlotDst, SlotSrc, SlotSrc, SlotSrc}},
	OpSinCos: {ClassSinCos, []OperandSlot{SlotDst, SlotDst, SlotSrc}},

	OpSample:     {ClassSample, []OperandSlot{SlotDst, SlotSrc, SlotSrc, SlotSrc}},
	OpSampleL:    {ClassSample, []OperandSlot{SlotDst, SlotSrc, SlotSrc, SlotSrc, SlotSrc}},
	OpSampleB:    {ClassSample, []OperandSlot{SlotDst, SlotSrc, SlotSrc, SlotSrc, SlotSrc}},
	OpSampleD:    {ClassSample, []OperandSlot{SlotDst, SlotSrc, SlotSrc, SlotSrc, SlotSrc, SlotSrc}},
	OpSampleC:    {ClassSample, []OperandSlot{SlotDst, SlotSrc, SlotSrc, SlotSrc, SlotSrc}},
	OpSampleCLZ:  {ClassSample, []OperandSlot{SlotDst, SlotSrc, SlotSrc, SlotSrc, SlotSrc}},
	OpLd:         {ClassLoadResource, []OperandSlot{SlotDst, SlotSrc, SlotSrc}},
	OpLdMS:       {ClassLoadResource, []OperandSlot{SlotDst, SlotSrc, SlotSrc, SlotSrc}},
	OpLod:        {ClassResInfo, []OperandSlot{SlotDst, SlotSrc, SlotSrc, SlotSrc}},
	OpResInfo:    {ClassResInfo, []OperandSlot{SlotDst, SlotSrc, SlotSrc}},
	OpGather4:    {ClassGather, []OperandSlot{SlotDst, SlotSrc, SlotSrc, SlotSrc}},
	OpGather4C:   {ClassGather, []OperandSlot{SlotDst, SlotSrc, SlotSrc, SlotSrc, SlotSrc}},
	OpSamplePos:  {ClassAlu, []OperandSlot{SlotDst, SlotSrc, SlotSrc}},
	OpSampleInfo: {ClassAlu, []OperandSlot{SlotDst, SlotSrc}},
	OpBufInfo:    {ClassResInfo, []OperandSlot{SlotDst, SlotSrc}},

	OpLdUavTyped:      {ClassLoadResource, []OperandSlot{SlotDst, SlotSrc, SlotSrc}},
	OpStoreUavTyped:   {ClassStoreResource, []OperandSlot{SlotDst, SlotSrc, SlotSrc}},
	OpLdRaw:           {ClassLoadResource, []OperandSlot{SlotDst, SlotSrc, SlotSrc}},
	OpStoreRaw:        {ClassStoreResource, []OperandSlot{SlotDst, SlotSrc, SlotSrc}},
	OpLdStructured:    {ClassLoadResource, []OperandSlot{SlotDst, SlotSrc, SlotSrc, SlotSrc}},
	OpStoreStructured: {ClassStoreResource, []OperandSlot{SlotDst, SlotSrc, SlotSrc, SlotSrc}},

	OpAtomicAnd:        {ClassAtomic, []OperandSlot{SlotDst, SlotSrc, SlotSrc}},
	OpAtomicOr:         {ClassAtomic, []OperandSlot{SlotDst, SlotSrc, SlotSrc}},
	OpAtomicXor:        {ClassAtomic, []OperandSlot{SlotDst, SlotSrc, SlotSrc}},
	OpAtomicIAdd:       {ClassAtomic, []OperandSlot{SlotDst, SlotSrc, SlotSrc}},
	OpAtomicIMax:       {ClassAtomic, []OperandSlot{SlotDst, SlotSrc, SlotSrc}},
	OpAtomicIMin:       {ClassAtomic, []OperandSlot{SlotDst, SlotSrc, SlotSrc}},
	OpAtomicUMax:       {ClassAtomic, []OperandSlot{SlotDst, SlotSrc, SlotSrc}},
	OpAtomicUMin:       {ClassAtomic, []OperandSlot{SlotDst, SlotSrc, SlotSrc}},
	OpAtomicCmpStore:   {ClassAtomic, []OperandSlot{SlotDst, SlotSrc, SlotSrc, SlotSrc}},
	OpImmAtomicIAdd:    {ClassAtomic, []OperandSlot{SlotDst, SlotSrc, SlotSrc, SlotSrc}},
	OpImmAtomicAnd:     {ClassAtomic, []OperandSlot{SlotDst, SlotSrc, SlotSrc, SlotSrc}},
	OpImmAtomicOr:      {ClassAtomic, []OperandSlot{SlotDst, SlotSrc, SlotSrc, SlotSrc}},
	OpImmAtomicXor:     {ClassAtomic, []OperandSlot{SlotDst, SlotSrc, SlotSrc, SlotSrc}},
	OpImmAtomicExch:    {ClassAtomic, []OperandSlot{SlotDst, SlotSrc, SlotSrc, SlotSrc}},
	OpImmAtomicCmpExch: {ClassAtomic, []OperandSlot{SlotDst, SlotSrc, SlotSrc, SlotSrc, SlotSrc}},
	OpImmAtomicIMax:    {ClassAtomic, []OperandSlot{SlotDst, SlotSrc, SlotSrc, SlotSrc}},
	OpImmAtomicIMin:    {ClassAtomic, []OperandSlot{SlotDst, SlotSrc, SlotSrc, SlotSrc}},
	OpImmAtomicUMax:    {ClassAtomic, []OperandSlot{SlotDst, SlotSrc, SlotSrc, SlotSrc}},
	OpImmAtomicUMin:    {ClassAtomic, []OperandSlot{SlotDst, SlotSrc, SlotSrc, SlotSrc}},

	OpIf:        {ClassControlFlow, []OperandSlot{SlotSrc}},
	OpElse:      {ClassControlFlow, nil},
	OpEndIf:     {ClassControlFlow, nil},
	OpLoop:      {ClassControlFlow, nil},
	OpEndLoop:   {ClassControlFlow, nil},
	OpBreak:     {ClassControlFlow, nil},
	OpBreakC:    {ClassControlFlow, []OperandSlot{SlotSrc}},
	OpContinue:  {ClassControlFlow, nil},
	OpContinueC: {ClassControlFlow, []OperandSlot{SlotSrc}},
	OpSwitch:    {ClassControlFlow, []OperandSlot{SlotSrc}},
	OpCase:      {ClassControlFlow, []OperandSlot{SlotSrc}},
	OpDefault:   {ClassControlFlow, nil},
	OpEndSwitch: {ClassControlFlow, nil},
	OpRet:       {ClassControlFlow, nil},
	OpRetC:      {ClassControlFlow, []OperandSlot{SlotSrc}},
	OpDiscard:   {ClassControlFlow, []OperandSlot{SlotSrc}},
	OpCall:      {ClassControlFlow, []OperandSlot{SlotSrc}},
	OpCallC:     {ClassControlFlow, []OperandSlot{SlotSrc, SlotSrc}},
	OpLabel:     {ClassControlFlow, []OperandSlot{SlotSrc}},
	OpNop:       {ClassNop, nil},

	OpEmit:              {ClassEmit, nil},
	OpCut:               {ClassEmit, nil},
	OpEmitThenCut:       {ClassEmit, nil},
	OpEmitStream:        {ClassEmit, []OperandSlot{SlotSrc}},
	OpCutStream:         {ClassEmit, []OperandSlot{SlotSrc}},
	OpEmitThenCutStream: {ClassEmit, []OperandSlot{SlotSrc}},

	OpSync: {ClassSync, nil},

	OpDclResource:                  {ClassDecl, []OperandSlot{SlotDst, SlotImm32}},
	OpDclResourceRaw:               {ClassDecl, []OperandSlot{SlotDst}},
	OpDclResourceStructured:        {ClassDecl, []OperandSlot{SlotDst, SlotImm32}},
	OpDclConstantBuffer:            {ClassDecl, []OperandSlot{SlotDst}},
	OpDclSampler:                   {ClassDecl, []OperandSlot{SlotDst}},
	OpDclIndexRange:                {ClassDecl, []OperandSlot{SlotDst, SlotImm32}},
	OpDclGsOutputPrimitiveTopology: {ClassDecl, nil},
	OpDclGsInputPrimitive:          {ClassDecl, nil},
	OpDclMaxOutputVertexCount:      {ClassDecl, []OperandSlot{SlotImm32}},
	OpDclGsInstanceCount:           {ClassDecl, []OperandSlot{SlotImm32}},
	OpDclInput:                     {ClassDecl, []OperandSlot{SlotDst}},
	OpDclInputSgv:                  {ClassDecl, []OperandSlot{SlotDst, SlotImm32}},
	OpDclInputSiv:                  {ClassDecl, []OperandSlot{SlotDst, SlotImm32}},
	OpDclInputPS:                   {ClassDecl, []OperandSlot{SlotDst}},
	OpDclInputPSSgv:                {ClassDecl, []OperandSlot{SlotDst, SlotImm32}},
	OpDclInputPSSiv:                {ClassDecl, []OperandSlot{SlotDst, SlotImm32}},
	OpDclOutput:                    {ClassDecl, []OperandSlot{SlotDst}},
	OpDclOutputSgv:                 {ClassDecl, []OperandSlot{SlotDst, SlotImm32}},
	OpDclOutputSiv:                 {ClassDecl, []OperandSlot{SlotDst, SlotImm32}},
	OpDclTemps:                     {ClassDecl, []OperandSlot{SlotImm32}},
	OpDclIndexableTemp:             {ClassDecl, []OperandSlot{SlotImm32, SlotImm32, SlotImm32}},
	OpDclGlobalFlags:               {ClassDecl, nil},
	OpDclInputControlPointCount:    {ClassDecl, nil},
	OpDclOutputControlPointCount:   {ClassDecl, nil},
	OpDclTessDomain:                {ClassDecl, nil},
	OpDclTessPartitioning:          {ClassDecl, nil},
	OpDclTessOutputPrimitive:       {ClassDecl, nil},
	OpDclThreadGroup:               {ClassDecl, []OperandSlot{SlotImm32, SlotImm32, SlotImm32}},
	OpDclUavTyped:                  {ClassDecl, []OperandSlot{SlotDst, SlotImm32}},
	OpDclUavRaw:                    {ClassDecl, []OperandSlot{SlotDst}},
	OpDclUavStructured:             {ClassDecl, []OperandSlot{SlotDst, SlotImm32}},
	OpDclTgsmRaw:                   {ClassDecl, []OperandSlot{SlotDst, SlotImm32}},
	OpDclTgsmStructured:            {ClassDecl, []OperandSlot{SlotDst, SlotImm32, SlotImm32}},
}

// LookupFormat returns the instruction-format descriptor for opcode, and
// false if the opcode is unrecognized — the caller must treat that as
// dxbc.ErrUnknownOpcode per spec.md §4.5's closing edge case.
func LookupFormat(op Opcode) (InstrFormat, bool) {
	f, ok := instrFormats[op]
	return f, ok
}
