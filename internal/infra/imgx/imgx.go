package imgx

import (
	"bytes"
	"errors"
	"image"
	"image/draw"
	"image/jpeg"
	_ "image/png" // 注册 PNG 解码器（输入不一定总是 jpeg）
)

// CoverCropJPEG 把缩略图裁成居中的 16:9 区域，并编码为 JPEG。
//
// 背景：上游的 hqdefault 固定是 480×360（4:3），16:9 的正片被上下黑边
// 信箱化。课程 UI 展示的是 16:9 卡片，落盘前裁掉黑边。
//
// 约束：
// - 输入允许是 JPEG/PNG（依赖标准库解码器）
// - 输出固定为 JPEG
// - 裁切规则：保持较长的那条边，居中裁另一条到 16:9；已是 16:9 则原样重编码
func CoverCropJPEG(thumb []byte) ([]byte, error) {
	if len(thumb) == 0 {
		return nil, errors.New("缩略图为空")
	}

	img, _, err := image.Decode(bytes.NewReader(thumb))
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, errors.New("图片尺寸无效")
	}

	srcRect := b
	switch {
	case w*9 > h*16:
		// 比 16:9 更宽：水平居中裁掉两侧。
		cw := h * 16 / 9
		x0 := b.Min.X + (w-cw)/2
		srcRect = image.Rect(x0, b.Min.Y, x0+cw, b.Max.Y)
	case w*9 < h*16:
		// 比 16:9 更高（信箱化就是这种）：垂直居中裁掉上下。
		ch := w * 9 / 16
		y0 := b.Min.Y + (h-ch)/2
		srcRect = image.Rect(b.Min.X, y0, b.Max.X, y0+ch)
	}

	dst := image.NewRGBA(image.Rect(0, 0, srcRect.Dx(), srcRect.Dy()))
	draw.Draw(dst, dst.Bounds(), img, srcRect.Min, draw.Src)

	var out bytes.Buffer
	// 质量：不需要太“讲究”，但要稳定可用；90 对缩略图体积更友好。
	if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
