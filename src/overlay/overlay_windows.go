//go:build windows

package overlay

import (
	"context"
	"fmt"
	"image"
	"log"
	"os"
	"syscall"
	"time"
	"unsafe"

	"github.com/lxn/win"

	"screen-chat-llm/src/frame"
	"screen-chat-llm/src/geometry"
	"screen-chat-llm/src/selector"
)

// Global state for the overlay window. The overlay runs strictly on the
// event-loop thread, one selection at a time.
var (
	overlayHwnd    win.HWND
	overlayDrag    *selector.DragSelector
	overlayFrame   *image.RGBA
	overlayDisplay geometry.DisplayedImage
	overlayResult  chan *image.RGBA
	overlayEscDown bool
	displayW       int32
	displayH       int32
	crossCursor    win.HCURSOR
	hBitmapNormal  win.HBITMAP
	hBitmapDim     win.HBITMAP
)

const (
	overlayKeyPollTimerID    = 1
	overlayKeyPollIntervalMs = 25
)

var (
	user32DLL                    = syscall.NewLazyDLL("user32.dll")
	procAllowSetForegroundWindow = user32DLL.NewProc("AllowSetForegroundWindow")
	procGetAsyncKeyState         = user32DLL.NewProc("GetAsyncKeyState")

	gdi32DLL      = syscall.NewLazyDLL("gdi32.dll")
	procCreatePen = gdi32DLL.NewProc("CreatePen")
	procRectangle = gdi32DLL.NewProc("Rectangle")
)

type windowsSelector struct{}

func newPlatformSelector() Selector { return &windowsSelector{} }

// Select shows a fullscreen topmost overlay with the captured frame as
// background and drives the drag state machine from window messages.
func (w *windowsSelector) Select(ctx context.Context, f *frame.RawFrame) (*image.RGBA, bool, error) {
	if f == nil || f.Image == nil {
		return nil, false, fmt.Errorf("overlay requires a captured frame")
	}

	// Cover the entire virtual screen so multi-monitor drags work.
	vx := win.GetSystemMetrics(win.SM_XVIRTUALSCREEN)
	vy := win.GetSystemMetrics(win.SM_YVIRTUALSCREEN)
	vw := win.GetSystemMetrics(win.SM_CXVIRTUALSCREEN)
	vh := win.GetSystemMetrics(win.SM_CYVIRTUALSCREEN)
	log.Printf("OVERLAY: virtual screen x=%d y=%d w=%d h=%d, frame %dx%d", vx, vy, vw, vh, f.Width, f.Height)

	displayW = vw
	displayH = vh
	overlayFrame = f.Image
	overlayDisplay = geometry.DisplayedImage{
		NativeWidth:   f.Width,
		NativeHeight:  f.Height,
		DisplayWidth:  int(vw),
		DisplayHeight: int(vh),
	}

	overlayResult = make(chan *image.RGBA, 1)
	overlayEscDown = false

	drag, err := selector.NewDragSelector(selector.DragConfig{
		Frame:   f,
		Display: overlayDisplay,
		OnSelect: func(img *image.RGBA) {
			overlayResult <- img
		},
		OnCancel: func() {
			win.PostQuitMessage(0)
		},
	})
	if err != nil {
		return nil, false, err
	}
	overlayDrag = drag

	crossCursor = win.LoadCursor(0, win.MAKEINTRESOURCE(win.IDC_CROSS))

	// Unique class name avoids conflicts with a prior invocation.
	classNameStr := fmt.Sprintf("ScreenChatOverlay_%d", time.Now().UnixNano())
	className := syscall.StringToUTF16Ptr(classNameStr)
	wndClass := win.WNDCLASSEX{
		CbSize:        uint32(unsafe.Sizeof(win.WNDCLASSEX{})),
		Style:         win.CS_HREDRAW | win.CS_VREDRAW,
		LpfnWndProc:   syscall.NewCallback(overlayWndProc),
		HInstance:     win.GetModuleHandle(nil),
		HCursor:       crossCursor,
		HbrBackground: 0, // we paint the whole client area ourselves
		LpszClassName: className,
	}
	if atom := win.RegisterClassEx(&wndClass); atom == 0 {
		return nil, false, fmt.Errorf("failed to register overlay window class")
	}
	defer win.UnregisterClass(className)

	overlayHwnd = win.CreateWindowEx(
		win.WS_EX_TOPMOST,
		className,
		syscall.StringToUTF16Ptr("Select region - drag to select, ESC cancels"),
		win.WS_POPUP|win.WS_VISIBLE,
		vx, vy, vw, vh,
		0, 0, win.GetModuleHandle(nil), nil,
	)
	if overlayHwnd == 0 {
		return nil, false, fmt.Errorf("failed to create overlay window")
	}
	defer destroyOverlay()

	win.ShowWindow(overlayHwnd, win.SW_SHOW)
	procAllowSetForegroundWindow.Call(uintptr(os.Getpid()))
	win.SetForegroundWindow(overlayHwnd)
	win.BringWindowToTop(overlayHwnd)
	win.SetFocus(overlayHwnd)
	win.UpdateWindow(overlayHwnd)

	if timerID := win.SetTimer(overlayHwnd, overlayKeyPollTimerID, overlayKeyPollIntervalMs, 0); timerID == 0 {
		log.Printf("OVERLAY: failed to start keyboard poll timer")
	}

	var msg win.MSG
	for {
		ret := win.GetMessage(&msg, 0, 0, 0)
		if ret == 0 { // WM_QUIT
			break
		}
		if ret == -1 {
			return nil, false, fmt.Errorf("overlay message loop error")
		}

		win.TranslateMessage(&msg)
		win.DispatchMessage(&msg)

		select {
		case img := <-overlayResult:
			log.Printf("OVERLAY: selection completed %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
			return img, false, nil
		case <-ctx.Done():
			return nil, false, ctx.Err()
		default:
		}
	}

	// WM_QUIT path: user cancelled with escape.
	return nil, true, nil
}

func destroyOverlay() {
	if hBitmapNormal != 0 {
		win.DeleteObject(win.HGDIOBJ(hBitmapNormal))
		hBitmapNormal = 0
	}
	if hBitmapDim != 0 {
		win.DeleteObject(win.HGDIOBJ(hBitmapDim))
		hBitmapDim = 0
	}
	if overlayHwnd != 0 {
		win.DestroyWindow(overlayHwnd)
		overlayHwnd = 0
	}
	overlayDrag = nil
	overlayFrame = nil
}

func overlayWndProc(hwnd win.HWND, msg uint32, wParam, lParam uintptr) uintptr {
	switch msg {
	case win.WM_LBUTTONDOWN:
		x := int32(win.LOWORD(uint32(lParam)))
		y := int32(win.HIWORD(uint32(lParam)))
		win.SetCapture(hwnd)
		overlayDrag.PointerDown(geometry.Point{X: int(x), Y: int(y)})
		win.InvalidateRect(hwnd, nil, false)
		win.UpdateWindow(hwnd)
		return 0

	case win.WM_MOUSEMOVE:
		if overlayDrag != nil && overlayDrag.State() == selector.DragSelecting {
			x := int32(win.LOWORD(uint32(lParam)))
			y := int32(win.HIWORD(uint32(lParam)))
			overlayDrag.PointerMove(geometry.Point{X: int(x), Y: int(y)})
			win.InvalidateRect(hwnd, nil, false)
			win.UpdateWindow(hwnd)
		}
		return 0

	case win.WM_LBUTTONUP:
		if overlayDrag != nil && overlayDrag.State() == selector.DragSelecting {
			win.ReleaseCapture()
			x := int32(win.LOWORD(uint32(lParam)))
			y := int32(win.HIWORD(uint32(lParam)))
			overlayDrag.PointerMove(geometry.Point{X: int(x), Y: int(y)})
			if err := overlayDrag.PointerUp(); err != nil {
				log.Printf("OVERLAY: selection failed: %v", err)
			}
			// Too-small drags leave the overlay open for another attempt.
			win.InvalidateRect(hwnd, nil, false)
			win.UpdateWindow(hwnd)
		}
		return 0

	case win.WM_PAINT:
		var ps win.PAINTSTRUCT
		hdc := win.BeginPaint(hwnd, &ps)
		paintOverlay(hdc)
		win.EndPaint(hwnd, &ps)
		return 0

	case win.WM_SETCURSOR:
		if crossCursor != 0 {
			win.SetCursor(crossCursor)
		}
		return 1

	case win.WM_TIMER:
		if wParam == overlayKeyPollTimerID {
			handlePolledKeys()
		}
		return 0

	case win.WM_KEYDOWN:
		if wParam == win.VK_ESCAPE {
			overlayEscDown = true
			cancelOverlay()
		}
		return 0

	case win.WM_KEYUP, win.WM_SYSKEYUP:
		if wParam == win.VK_ESCAPE {
			overlayEscDown = false
		}
		return 0

	case win.WM_NCHITTEST:
		// Force all points into the client area so we receive mouse events.
		return uintptr(win.HTCLIENT)

	case win.WM_DESTROY:
		win.KillTimer(hwnd, overlayKeyPollTimerID)
		// Do NOT PostQuitMessage here. In the success path we return from
		// Select() as soon as we have the image, and posting WM_QUIT here
		// would leave a leftover WM_QUIT in the thread queue that the next
		// invocation would consume immediately.
		return 0
	}

	return win.DefWindowProc(hwnd, msg, wParam, lParam)
}

func handlePolledKeys() {
	state, _, _ := procGetAsyncKeyState.Call(uintptr(win.VK_ESCAPE))
	s := uint16(state)
	escapeDown := s&0x8000 != 0
	escapePressed := s&0x0001 != 0
	if !overlayEscDown && (escapeDown || escapePressed) {
		log.Printf("OVERLAY: escape detected via async polling")
		cancelOverlay()
	}
	overlayEscDown = escapeDown
}

func cancelOverlay() {
	log.Printf("OVERLAY: cancelling selection")
	if overlayDrag != nil {
		overlayDrag.Cancel()
	} else {
		win.PostQuitMessage(0)
	}
}

// paintOverlay renders the frame background, dims everything outside the
// live selection, and draws the outline plus size label.
func paintOverlay(hdc win.HDC) {
	if overlayFrame == nil || overlayDrag == nil {
		return
	}
	ensureBitmaps(hdc)
	if hBitmapNormal == 0 {
		return
	}

	memDC := win.CreateCompatibleDC(hdc)
	defer win.DeleteDC(memDC)

	nw := int32(overlayDisplay.NativeWidth)
	nh := int32(overlayDisplay.NativeHeight)

	win.SetStretchBltMode(hdc, win.HALFTONE)
	oldBitmap := win.SelectObject(memDC, win.HGDIOBJ(hBitmapNormal))
	win.StretchBlt(hdc, 0, 0, displayW, displayH, memDC, 0, 0, nw, nh, win.SRCCOPY)

	dims := overlayDrag.DimRegions()
	if len(dims) > 0 && hBitmapDim != 0 {
		win.SelectObject(memDC, win.HGDIOBJ(hBitmapDim))
		for _, r := range dims {
			if r.Width <= 0 || r.Height <= 0 {
				continue
			}
			src := overlayDisplay.ToNative(r)
			win.StretchBlt(hdc,
				int32(r.Left), int32(r.Top), int32(r.Width), int32(r.Height),
				memDC,
				int32(src.Min.X), int32(src.Min.Y), int32(src.Dx()), int32(src.Dy()),
				win.SRCCOPY)
		}
	}
	win.SelectObject(memDC, oldBitmap)

	if overlayDrag.State() == selector.DragSelecting {
		box := overlayDrag.Box()
		if !box.Empty() {
			drawSelectionOutline(hdc, box)
			drawSizeLabel(hdc, box, overlayDrag.SizeLabel())
		}
	} else {
		drawHints(hdc)
	}
}

// ensureBitmaps lazily builds the two DIB sections used for painting: the
// frame itself and a darkened copy for the regions outside the selection.
func ensureBitmaps(hdc win.HDC) {
	if hBitmapNormal != 0 {
		return
	}
	hBitmapNormal = createDIBFromRGBA(hdc, overlayFrame, 1)
	hBitmapDim = createDIBFromRGBA(hdc, overlayFrame, 2)
}

// createDIBFromRGBA copies an RGBA image into a top-down 32-bit DIB,
// converting to BGRA. divisor>1 darkens the pixels for the dim layer.
func createDIBFromRGBA(hdc win.HDC, img *image.RGBA, divisor byte) win.HBITMAP {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	bitmapInfo := win.BITMAPINFO{
		BmiHeader: win.BITMAPINFOHEADER{
			BiSize:        uint32(unsafe.Sizeof(win.BITMAPINFOHEADER{})),
			BiWidth:       int32(width),
			BiHeight:      -int32(height), // negative for top-down
			BiPlanes:      1,
			BiBitCount:    32,
			BiCompression: win.BI_RGB,
		},
	}

	var pBits unsafe.Pointer
	hBitmap := win.CreateDIBSection(hdc, &bitmapInfo.BmiHeader, win.DIB_RGB_COLORS, &pBits, 0, 0)
	if hBitmap == 0 {
		return 0
	}

	stride := (((int32(width)*32 + 31) &^ 31) / 8)
	for y := 0; y < height; y++ {
		rowPtr := (*[1 << 29]byte)(unsafe.Pointer(uintptr(pBits) + uintptr(y)*uintptr(stride)))
		srcRow := img.Pix[y*img.Stride:]
		for x := 0; x < width; x++ {
			so := x * 4
			do := x * 4
			rowPtr[do] = srcRow[so+2] / divisor   // B
			rowPtr[do+1] = srcRow[so+1] / divisor // G
			rowPtr[do+2] = srcRow[so] / divisor   // R
			rowPtr[do+3] = srcRow[so+3]           // A
		}
	}

	return hBitmap
}

func drawSelectionOutline(hdc win.HDC, box geometry.NormalizedBox) {
	pen, _, _ := procCreatePen.Call(0, 2, 0x00D47800) // BGR accent blue
	oldPen := win.SelectObject(hdc, win.HGDIOBJ(pen))
	oldBrush := win.SelectObject(hdc, win.GetStockObject(win.NULL_BRUSH))

	procRectangle.Call(uintptr(hdc),
		uintptr(int32(box.Left)), uintptr(int32(box.Top)),
		uintptr(int32(box.Left+box.Width)), uintptr(int32(box.Top+box.Height)))

	win.SelectObject(hdc, oldPen)
	win.SelectObject(hdc, oldBrush)
	win.DeleteObject(win.HGDIOBJ(pen))
}

func drawSizeLabel(hdc win.HDC, box geometry.NormalizedBox, label string) {
	if label == "" {
		return
	}
	x := int32(box.Left + 6)
	y := int32(box.Top + box.Height + 6)
	if y > displayH-24 {
		y = int32(box.Top) - 24
		if y < 0 {
			y = int32(box.Top + 6)
		}
	}
	win.SetBkMode(hdc, win.TRANSPARENT)
	win.SetTextColor(hdc, win.COLORREF(0x00FFFF))
	buf, n := labelUTF16(label)
	win.TextOut(hdc, x, y, &buf[0], n)
}

func drawHints(hdc win.HDC) {
	line := "Drag to select a region   ESC cancels"
	win.SetBkMode(hdc, win.TRANSPARENT)
	win.SetTextColor(hdc, win.COLORREF(0x00FFFF))
	buf, n := labelUTF16(line)
	win.TextOut(hdc, 16, 16, &buf[0], n)
}
